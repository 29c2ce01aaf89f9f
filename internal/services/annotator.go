package services

import (
	"context"
	"fmt"
	"html"
	"notification-service/internal/entities"
	"notification-service/internal/localization"
	"strings"
	"time"
)

type NoteKind int

const (
	NoteAnswer NoteKind = iota
	NoteAuthorization
	NoteCapture
	NoteRefund
	NoteFunctionExecuted
)

func (k NoteKind) String() string {
	switch k {
	case NoteAnswer:
		return "Answer"
	case NoteAuthorization:
		return "Authorization"
	case NoteCapture:
		return "Capture"
	case NoteRefund:
		return "Refund"
	case NoteFunctionExecuted:
		return "FunctionExecuted"
	}
	return fmt.Sprintf("NoteKind(%d)", int(k))
}

func (k NoteKind) templateKey() string {
	return "OrderNotes." + k.String()
}

// OrderSaver persists an order together with its notes.
type OrderSaver interface {
	Save(ctx context.Context, order *entities.Order) error
}

type AnnotatorOptions struct {
	Enabled    bool
	StoreURL   string
	SystemName string
}

// AnnotationError reports a note that could not be composed or persisted.
type AnnotationError struct {
	OrderID int64
	Kind    NoteKind
	Err     error
}

func (e *AnnotationError) Error() string {
	return fmt.Sprintf("annotating order %d with %s note: %v", e.OrderID, e.Kind, e.Err)
}

func (e *AnnotationError) Unwrap() error {
	return e.Err
}

// Annotator appends localized, icon-prefixed notes to orders.
type Annotator struct {
	orders    OrderSaver
	localizer localization.Localizer
	opts      AnnotatorOptions
	now       func() time.Time
}

func NewAnnotator(orders OrderSaver, localizer localization.Localizer, opts AnnotatorOptions) *Annotator {
	return &Annotator{
		orders:    orders,
		localizer: localizer,
		opts:      opts,
		now:       time.Now,
	}
}

// Annotate is best effort: every failure, panics included, comes back as an
// *AnnotationError for the caller to log and drop.
func (a *Annotator) Annotate(ctx context.Context, order *entities.Order, kind NoteKind, substitution string, isAsync bool) (err error) {
	if !a.opts.Enabled || order == nil {
		return nil
	}

	defer func() {
		if r := recover(); r != nil {
			err = &AnnotationError{OrderID: order.ID, Kind: kind, Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	order.AddNote(a.compose(kind, substitution), a.now())
	if isAsync {
		order.HasNewPaymentNotification = true
	}

	if err := a.orders.Save(ctx, order); err != nil {
		return &AnnotationError{OrderID: order.ID, Kind: kind, Err: err}
	}
	return nil
}

func (a *Annotator) compose(kind NoteKind, substitution string) string {
	var sb strings.Builder
	sb.WriteString(`<img src="`)
	sb.WriteString(a.opts.StoreURL)
	sb.WriteString("Plugins/")
	sb.WriteString(a.opts.SystemName)
	sb.WriteString(`/Content/images/favicon.png" style="float: left; width: 16px; height: 16px;" />`)

	text := a.localizer.Resolve(kind.templateKey())
	if substitution != "" {
		text = strings.Replace(text, "{0}", html.EscapeString(substitution), 1)
	} else {
		text = strings.Replace(text, "{0}", "", 1)
	}
	text = strings.TrimSpace(text)

	if text != "" {
		sb.WriteString(`<span style="padding-left: 4px;">`)
		sb.WriteString(text)
		sb.WriteString("</span>")
	}
	return sb.String()
}
