package ui

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/goleak"
)

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0"},
		{7, "7"},
		{999, "999"},
		{1000, "1,000"},
		{12345, "12,345"},
		{123456, "123,456"},
		{1234567, "1,234,567"},
		{-1234567, "-1,234,567"},
		{-12, "-12"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatNumber(tt.in), "FormatNumber(%d)", tt.in)
	}
}

func TestTitle(t *testing.T) {
	tests := map[string]string{
		"extractive":   "Extractive",
		"custom (30%)": "Custom (30%)",
		"USER":         "User",
		"two words":    "Two Words",
		"":             "",
	}
	for in, want := range tests {
		assert.Equal(t, want, Title(in), "Title(%q)", in)
	}
}

func TestParseToastKind(t *testing.T) {
	assert.Equal(t, ToastSuccess, ParseToastKind("success"))
	assert.Equal(t, ToastDanger, ParseToastKind("danger"))
	assert.Equal(t, ToastWarning, ParseToastKind("warning"))
	assert.Equal(t, ToastInfo, ParseToastKind("info"))
	assert.Equal(t, ToastInfo, ParseToastKind("message"))
	assert.Equal(t, "toast-success", Toast{Kind: ToastSuccess}.Class())
	assert.Equal(t, "toast-info", Toast{Kind: "bogus"}.Class())
}

func TestDebounceCoalescesCalls(t *testing.T) {
	defer goleak.VerifyNone(t)

	var calls atomic.Int32
	var firedAt atomic.Int64
	d := Debounce(func() {
		calls.Add(1)
		firedAt.Store(time.Now().UnixNano())
	}, 100*time.Millisecond)

	// Three triggers within 50ms.
	d.Trigger()
	time.Sleep(20 * time.Millisecond)
	d.Trigger()
	time.Sleep(20 * time.Millisecond)
	last := time.Now()
	d.Trigger()

	assert.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(150 * time.Millisecond)

	assert.Equal(t, int32(1), calls.Load())
	assert.GreaterOrEqual(t, time.Duration(firedAt.Load()-last.UnixNano()), 100*time.Millisecond)
	assert.False(t, d.Pending())
}

func TestDebouncersAreIndependent(t *testing.T) {
	defer goleak.VerifyNone(t)

	var a, b atomic.Int32
	da := Debounce(func() { a.Add(1) }, 30*time.Millisecond)
	db := Debounce(func() { b.Add(1) }, 30*time.Millisecond)

	da.Trigger()
	db.Trigger()

	assert.Eventually(t, func() bool { return a.Load() == 1 && b.Load() == 1 }, time.Second, 5*time.Millisecond)
}

func TestDebounceFlushAndStop(t *testing.T) {
	defer goleak.VerifyNone(t)

	var calls atomic.Int32
	d := Debounce(func() { calls.Add(1) }, time.Hour)

	assert.False(t, d.Flush(), "nothing pending")

	d.Trigger()
	assert.True(t, d.Pending())
	assert.True(t, d.Flush())
	assert.Equal(t, int32(1), calls.Load())
	assert.False(t, d.Pending())

	d.Trigger()
	d.Stop()
	assert.False(t, d.Pending())
	assert.False(t, d.Flush())
	assert.Equal(t, int32(1), calls.Load())
}
