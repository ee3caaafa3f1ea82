package domain

import "time"

// ScreenStatus is the administrative lifecycle state of a screen (owned by
// the out-of-scope CRUD surface; the core only reads it).
type ScreenStatus string

const (
	ScreenDraft          ScreenStatus = "DRAFT"
	ScreenSubmitted      ScreenStatus = "SUBMITTED"
	ScreenPending        ScreenStatus = "PENDING"
	ScreenVerified       ScreenStatus = "VERIFIED"
	ScreenRejected       ScreenStatus = "REJECTED"
	ScreenResubmitted    ScreenStatus = "RESUBMITTED"
	ScreenScheduledBlock ScreenStatus = "SCHEDULED_BLOCK"
	ScreenBlocked        ScreenStatus = "BLOCKED"
)

// ProfileStatus tracks whether a screen's AreaProfile is fresh.
type ProfileStatus string

const (
	ProfileNotProfiled ProfileStatus = "NOT_PROFILED"
	ProfileProfiled    ProfileStatus = "PROFILED"
	ProfileReprofile   ProfileStatus = "REPROFILE"
)

// Discoverable reports whether a screen is eligible for XIA discovery
// (spec §3: status ∈ {VERIFIED, SCHEDULED_BLOCK} ∧ profile_status ∈ {PROFILED, REPROFILE}).
func (s Screen) Discoverable() bool {
	switch s.Status {
	case ScreenVerified, ScreenScheduledBlock:
	default:
		return false
	}
	switch s.ProfileStatus {
	case ProfileProfiled, ProfileReprofile:
		return true
	default:
		return false
	}
}

// Screen is the read-only view of a screen's specs the core consumes.
// Field names follow the original inventory schema (screen_master) so the
// Discover Engine's filter predicates map onto them directly.
type Screen struct {
	ID              string `json:"screenid"`
	Name            string `json:"screen_name"`
	CompanyName     string `json:"company_name"`
	PartnerName     string `json:"partner_name"`

	SpecLatitude       float64 `json:"spec_latitude"`
	SpecLongitude      float64 `json:"spec_longitude"`
	SpecCity           string  `json:"spec_city"`
	SpecFullAddress    string  `json:"spec_full_address"`
	SpecNearestLandmark string `json:"spec_nearest_landmark"`

	Technology       string `json:"technology"`
	Environment      string `json:"environment"` // "Indoor" / "Outdoor"
	ScreenType       string `json:"screen_type"`
	ScreenWidth      float64 `json:"screen_width"`
	ScreenHeight     float64 `json:"screen_height"`
	ResolutionWidth  int     `json:"resolution_width"`
	ResolutionHeight int     `json:"resolution_height"`
	Orientation      string  `json:"orientation"`
	PixelPitchMM     float64 `json:"pixel_pitch_mm"`
	BrightnessNits   int     `json:"brightness_nits"`
	RefreshRateHz    int     `json:"refresh_rate_hz"`

	InstallationType string  `json:"installation_type"`
	MountingHeightFt float64 `json:"mounting_height_ft"`
	FacingDirection  string  `json:"facing_direction"`
	RoadType         string  `json:"road_type"`
	TrafficDirection string  `json:"traffic_direction"`

	StandardAdDurationSec int `json:"standard_ad_duration_sec"`
	TotalSlotsPerLoop     int `json:"total_slots_per_loop"`
	LoopLengthSec         int `json:"loop_length_sec"`
	ReservedSlots         int `json:"reserved_slots"`

	SupportedFormats  []string `json:"supported_formats_json"`
	MaxFileSizeMB     float64  `json:"max_file_size_mb"`
	AudioSupported    bool     `json:"audio_supported"`
	BasePricePerSlotINR float64 `json:"base_price_per_slot_inr"`

	ScreenImageFront string `json:"screen_image_front,omitempty"`
	ScreenImageBack  string `json:"screen_image_back,omitempty"`
	ScreenImageLong  string `json:"screen_image_long,omitempty"`

	RestrictedCategories []string `json:"restricted_categories_json,omitempty"`
	SensitiveZoneFlags   []string `json:"sensitive_zone_flags_json,omitempty"`

	Status          ScreenStatus  `json:"status"`
	ScheduledBlockDate *time.Time `json:"scheduled_block_date,omitempty"`
	ProfileStatus   ProfileStatus `json:"profile_status"`

	Profile AreaProfile `json:"areaProfile"`
}

// BookingSource distinguishes slot bookings made through XIGI (the
// self-serve booking flow) from partner-fed bookings.
type BookingSource string

const (
	BookingSourceXigi    BookingSource = "XIGI"
	BookingSourcePartner BookingSource = "PARTNER"
)

// BookingStatus is the slot booking lifecycle.
type BookingStatus string

const (
	BookingHold      BookingStatus = "HOLD"
	BookingActive    BookingStatus = "ACTIVE"
	BookingExpired   BookingStatus = "EXPIRED"
	BookingCancelled BookingStatus = "CANCELLED"
	BookingDeleted   BookingStatus = "DELETED"
)

// PaymentStatus of a slot booking.
type PaymentStatus string

const (
	PaymentPaid   PaymentStatus = "PAID"
	PaymentUnpaid PaymentStatus = "UNPAID"
)

// SlotBooking reserves a number of playback slots on a screen over a date range.
type SlotBooking struct {
	ID        string        `json:"id"`
	ScreenID  string        `json:"screen_id"`
	NumSlots  int           `json:"num_slots"`
	StartDate time.Time     `json:"start_date"`
	EndDate   time.Time     `json:"end_date"`
	Source    BookingSource `json:"source"`
	Status    BookingStatus `json:"status"`
	Payment   PaymentStatus `json:"payment"`
	CreatedAt time.Time     `json:"created_at"`
}

// Overlaps reports whether the booking's date range intersects [start, end], inclusive.
func (b SlotBooking) Overlaps(start, end time.Time) bool {
	return !b.EndDate.Before(start) && !b.StartDate.After(end)
}

// IsStaleHold reports whether this is an unpaid XIGI hold older than maxAge
// (spec §3/§4.8 invariant, P7: auto-expired before any availability read).
func (b SlotBooking) IsStaleHold(now time.Time, maxAge time.Duration) bool {
	return b.Source == BookingSourceXigi &&
		b.Status == BookingHold &&
		b.Payment == PaymentUnpaid &&
		now.Sub(b.CreatedAt) > maxAge
}
