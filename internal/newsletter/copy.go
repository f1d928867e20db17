package newsletter

import (
	"github.com/technofatty/technofatty/internal/config"
)

// Copy strings shown to visitors.
const (
	MsgRequiredEmail = "Please enter your email address to subscribe."
	MsgInvalidEmail  = "Enter a valid email address (example: name@example.com)."
	MsgSuccessSingle = "Thanks — you’re subscribed and will get the next newsletter."
	MsgSuccessDouble = "Thanks — please check your inbox and confirm your subscription to start receiving the newsletter."
	MsgServerBusy    = "We’re having trouble right now. Try again in a few minutes."
	MsgError         = "Something went wrong. Please try again."
)

// SuccessMessage returns the success copy for the opt-in mode. A provider
// that reports needs_confirm always gets the confirmation wording.
func SuccessMessage(optInMode string, result Result) string {
	if optInMode == config.OptInDouble || result == ResultNeedsConfirm {
		return MsgSuccessDouble
	}
	return MsgSuccessSingle
}
