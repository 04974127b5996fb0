package notify

import (
	"github.com/gen2brain/beeep"

	"github.com/j-veylop/claudewatch/internal/models"
)

// BeeepDeliverer sends desktop notifications via the OS notifier.
type BeeepDeliverer struct{}

// NewBeeepDeliverer prepares desktop delivery. There is no permission
// handshake to perform; naming the app is the whole setup.
func NewBeeepDeliverer() *BeeepDeliverer {
	beeep.AppName = "claudewatch"
	return &BeeepDeliverer{}
}

// Send delivers one notification. Critical severities use the alert
// variant so they carry the platform's attention sound.
func (d *BeeepDeliverer) Send(_ string, severity models.Threshold, message string) error {
	title := "Claude usage " + severity.Name()
	if severity >= models.ThresholdCritical {
		return beeep.Alert(title, message, "")
	}
	return beeep.Notify(title, message, "")
}
