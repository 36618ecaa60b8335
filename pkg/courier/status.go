package courier

// TopicShippingStatus is the only webhook topic this system processes.
const TopicShippingStatus = "SHIPPING_STATUS"

// Raw courier statuses that appear on tracking and webhook payloads.
const (
	RawConfirmed  = "CONFIRMED"
	RawInProgress = "IN_PROGRESS"
	RawNearPickup = "NEAR_PICKUP"
	RawPickedUp   = "PICKED_UP"
	RawNearDrop   = "NEAR_DROPOFF"
	RawCompleted  = "COMPLETED"
	RawCancelled  = "CANCELLED"
)

// MapStatus translates a raw courier status string into the normalized
// shipment status. ok is false for statuses outside the table; callers must
// leave the prior status unchanged in that case.
func MapStatus(raw string) (Status, bool) {
	switch raw {
	case RawCompleted:
		return StatusDelivered, true
	case RawInProgress, RawNearPickup, RawPickedUp, RawNearDrop:
		return StatusInTransit, true
	case RawCancelled:
		return StatusCanceled, true
	case RawConfirmed:
		return StatusWaiting, true
	default:
		return "", false
	}
}
