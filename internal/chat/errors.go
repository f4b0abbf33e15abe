package chat

import "github.com/goatkit/querypro/internal/apierrors"

// Error codes of the chat namespace.
const (
	CodeRequestPending = "chat:request_pending"
	CodeUnavailable    = "chat:unavailable"
)

// NoticeUnavailable is shown inline when a message could not be answered.
const NoticeUnavailable = "Sorry, I couldn't reach the assistant. Please try again."

type chatErrors struct{}

func (chatErrors) EnumerateErrors() []apierrors.ErrorCode {
	return []apierrors.ErrorCode{
		{Code: "request_pending", Message: "Please wait for the assistant to answer"},
		{Code: "unavailable", Message: NoticeUnavailable},
	}
}

func init() {
	apierrors.Registry.RegisterNamespace("chat", chatErrors{})
}
