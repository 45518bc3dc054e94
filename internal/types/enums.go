package types

// Partition identifies the lifecycle phase of a notification record and
// determines which query surface exposes it. A record is never visible in
// both partitions simultaneously.
type Partition string

const (
	PartitionDraft Partition = "Draft"
	PartitionSent  Partition = "Sent"
)

// NotificationStatus represents the send lifecycle state of a sent
// notification. Stored as text; parsed back into the closed set at the
// storage boundary.
type NotificationStatus string

const (
	StatusQueued NotificationStatus = "Queued"
	StatusSent   NotificationStatus = "Sent"
	StatusFailed NotificationStatus = "Failed"
)

// Valid reports whether s is one of the closed set of statuses.
func (s NotificationStatus) Valid() bool {
	switch s {
	case StatusQueued, StatusSent, StatusFailed:
		return true
	}
	return false
}

// ImageSize controls how the authored image is rendered in the card.
// ImageSizeCustom uses the record's explicit height/width fields.
type ImageSize string

const (
	ImageSizeAuto   ImageSize = "Auto"
	ImageSizeLarge  ImageSize = "Large"
	ImageSizeMedium ImageSize = "Medium"
	ImageSizeSmall  ImageSize = "Small"
	ImageSizeCustom ImageSize = "Custom"
)

// Valid reports whether s is a recognized image size.
func (s ImageSize) Valid() bool {
	switch s {
	case ImageSizeAuto, ImageSizeLarge, ImageSizeMedium, ImageSizeSmall, ImageSizeCustom:
		return true
	}
	return false
}

// DeliveryOutcome classifies a single recipient delivery result as reported
// by delivery workers. Throttled is counted separately from failure.
type DeliveryOutcome string

const (
	OutcomeSucceeded DeliveryOutcome = "succeeded"
	OutcomeFailed    DeliveryOutcome = "failed"
	OutcomeThrottled DeliveryOutcome = "throttled"
)
