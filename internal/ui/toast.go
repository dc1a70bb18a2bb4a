package ui

// ToastKind selects the styling of a toast. The values double as the CSS
// class suffix (toast-success, toast-danger, ...).
type ToastKind string

const (
	ToastInfo    ToastKind = "info"
	ToastSuccess ToastKind = "success"
	ToastDanger  ToastKind = "danger"
	ToastWarning ToastKind = "warning"
)

// Toast is a transient notification shown once on the next rendered page.
type Toast struct {
	Kind    ToastKind `json:"kind"`
	Message string    `json:"message"`
}

// ParseToastKind maps a stored category to a kind, defaulting to info.
func ParseToastKind(s string) ToastKind {
	switch ToastKind(s) {
	case ToastSuccess, ToastDanger, ToastWarning:
		return ToastKind(s)
	default:
		return ToastInfo
	}
}

// Class returns the CSS class for the toast.
func (t Toast) Class() string {
	return "toast-" + string(ParseToastKind(string(t.Kind)))
}
