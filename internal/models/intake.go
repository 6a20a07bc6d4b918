package models

// Lead is a contact request stored in lp_leads.
type Lead struct {
	Name        string `json:"name" validate:"required"`
	Email       string `json:"email" validate:"required,email"`
	Company     string `json:"company"`
	Phone       string `json:"phone"`
	Campaign    string `json:"campaign"`
	FromPage    string `json:"from_page"`
	UTMSource   string `json:"utm_source"`
	UTMMedium   string `json:"utm_medium"`
	UTMCampaign string `json:"utm_campaign"`
	UTMContent  string `json:"utm_content"`
	UTMTerm     string `json:"utm_term"`
}

// ApplicationIntake is the coaching application form submission.
type ApplicationIntake struct {
	FirstName            string            `json:"firstName" validate:"required"`
	LastName             string            `json:"lastName" validate:"required"`
	Email                string            `json:"email" validate:"required,email"`
	Phone                string            `json:"phone"`
	Company              string            `json:"company"`
	Position             string            `json:"position"`
	Program              string            `json:"program" validate:"required,oneof=gruppen_coaching mastermind beide"`
	QuestionnaireAnswers map[string]string `json:"questionnaireAnswers"`
	Motivation           string            `json:"motivation"`
}

// Attribution carries session and campaign data sent alongside a form.
type Attribution struct {
	SessionID   string
	UTMSource   string
	UTMMedium   string
	UTMCampaign string
}

// MastermindApplication is the short mastermind form, stored as a lead.
type MastermindApplication struct {
	Name        string `json:"name" validate:"required"`
	Email       string `json:"email" validate:"required,email"`
	Company     string `json:"company" validate:"required"`
	Revenue     string `json:"revenue" validate:"required"`
	Goals       string `json:"goals" validate:"required"`
	UTMSource   string `json:"utm_source"`
	UTMMedium   string `json:"utm_medium"`
	UTMCampaign string `json:"utm_campaign"`
	UTMContent  string `json:"utm_content"`
	UTMTerm     string `json:"utm_term"`
}

// SeminarApplication is the full mastermind seminar application, stored in
// its own table. Fields are listed in the order they are checked.
type SeminarApplication struct {
	Email             string `json:"email" validate:"required,email"`
	FirstName         string `json:"firstName" validate:"required"`
	LastName          string `json:"lastName" validate:"required"`
	Company           string `json:"company" validate:"required"`
	Phone             string `json:"phone"`
	Position          string `json:"position"`
	CurrentChallenges string `json:"currentChallenges"`
	Goals             string `json:"goals"`
	SeminarDate       string `json:"seminarDate"`
}

// PixelEvent is an ad-attribution event mirrored into meta_pixel_events.
type PixelEvent struct {
	EventName       string         `json:"event_name" validate:"required"`
	EventID         string         `json:"event_id" validate:"required"`
	SessionID       string         `json:"session_id" validate:"required"`
	VisitorID       string         `json:"visitor_id,omitempty"`
	FBCLID          string         `json:"fbclid,omitempty"`
	UTMSource       string         `json:"utm_source,omitempty"`
	UTMMedium       string         `json:"utm_medium,omitempty"`
	UTMCampaign     string         `json:"utm_campaign,omitempty"`
	UTMContent      string         `json:"utm_content,omitempty"`
	UTMTerm         string         `json:"utm_term,omitempty"`
	PageURL         string         `json:"page_url,omitempty"`
	PagePath        string         `json:"page_path,omitempty"`
	Referrer        string         `json:"referrer,omitempty"`
	UserAgent       string         `json:"user_agent,omitempty"`
	DeviceType      string         `json:"device_type,omitempty"`
	Browser         string         `json:"browser,omitempty"`
	ScrollDepth     *float64       `json:"scroll_depth,omitempty"`
	TimeOnPage      *float64       `json:"time_on_page,omitempty"`
	ApplicationID   string         `json:"application_id,omitempty"`
	AppointmentDate string         `json:"appointment_date,omitempty"`
	EventData       map[string]any `json:"event_data,omitempty"`
}
