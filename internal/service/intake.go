package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/synclaro/website-api/internal/logger"
	"github.com/synclaro/website-api/internal/models"
	"github.com/synclaro/website-api/internal/store"
)

const (
	leadsTable        = "lp_leads"
	applicationsTable = "lp_coaching_applications"
	pixelEventsTable  = "meta_pixel_events"
	seminarTable      = "mastermind_applications"

	defaultLeadCampaign   = "kontakt"
	defaultLeadPage       = "/kontakt"
	mastermindCampaign    = "mastermind_application"
	mastermindPage        = "/mastermind"
	applicationSource     = "lp_coaching"
	maxMastermindGoalsLen = 500
)

type leadRow struct {
	Name        string  `json:"name"`
	Email       string  `json:"email"`
	Company     *string `json:"company"`
	Phone       *string `json:"phone"`
	Campaign    string  `json:"campaign"`
	FromPage    string  `json:"from_page"`
	UTMSource   *string `json:"utm_source"`
	UTMMedium   *string `json:"utm_medium"`
	UTMCampaign *string `json:"utm_campaign"`
	UTMContent  *string `json:"utm_content"`
	UTMTerm     *string `json:"utm_term"`
}

type applicationRow struct {
	FirstName            string            `json:"first_name"`
	LastName             string            `json:"last_name"`
	Email                string            `json:"email"`
	Phone                string            `json:"phone"`
	Company              *string           `json:"company"`
	Position             *string           `json:"position"`
	ProgramInterest      string            `json:"program_interest"`
	QuestionnaireAnswers map[string]string `json:"questionnaire_answers"`
	Motivation           *string           `json:"motivation"`
	Source               string            `json:"source"`
	UTMSource            *string           `json:"utm_source"`
	UTMMedium            *string           `json:"utm_medium"`
	UTMCampaign          *string           `json:"utm_campaign"`
	SessionID            *string           `json:"session_id"`
	Status               string            `json:"status"`
}

type seminarRow struct {
	FirstName         string         `json:"first_name"`
	LastName          string         `json:"last_name"`
	Email             string         `json:"email"`
	Phone             *string        `json:"phone"`
	Company           string         `json:"company"`
	Position          *string        `json:"position"`
	Motivation        *string        `json:"motivation"`
	CurrentChallenges *string        `json:"current_challenges"`
	Goals             *string        `json:"goals"`
	SeminarDate       *string        `json:"seminar_date"`
	Status            string         `json:"status"`
	Metadata          map[string]any `json:"metadata"`
}

type pixelEventRow struct {
	models.PixelEvent
	EventData map[string]any `json:"event_data"`
	EventTime string         `json:"event_time"`
}

type insertedRow struct {
	ID json.RawMessage `json:"id"`
}

// IntakeService stores form submissions from the marketing site.
type IntakeService struct {
	logger    *logger.Logger
	records   store.Records // marketing store: leads and applications
	crm       store.Records // CRM store: pixel events
	notifier  Notifier
	sanitizer *TextSanitizer
	now       func() time.Time
}

func NewIntakeService(log *logger.Logger, records, crm store.Records, notifier Notifier, sanitizer *TextSanitizer) *IntakeService {
	return &IntakeService{
		logger:    log,
		records:   records,
		crm:       crm,
		notifier:  notifier,
		sanitizer: sanitizer,
		now:       time.Now,
	}
}

// CreateLead stores a contact request and returns its id.
func (s *IntakeService) CreateLead(ctx context.Context, lead models.Lead) (string, error) {
	row := leadRow{
		Name:        strings.TrimSpace(lead.Name),
		Email:       strings.TrimSpace(lead.Email),
		Company:     nullable(lead.Company),
		Phone:       nullable(lead.Phone),
		Campaign:    orDefault(lead.Campaign, defaultLeadCampaign),
		FromPage:    orDefault(lead.FromPage, defaultLeadPage),
		UTMSource:   nullable(lead.UTMSource),
		UTMMedium:   nullable(lead.UTMMedium),
		UTMCampaign: nullable(lead.UTMCampaign),
		UTMContent:  nullable(lead.UTMContent),
		UTMTerm:     nullable(lead.UTMTerm),
	}
	id, err := s.insert(ctx, s.records, leadsTable, row)
	if err != nil {
		return "", fmt.Errorf("failed to save lead: %w", err)
	}
	s.logger.Info("Lead stored", logger.Action("create_lead"), logger.F("CAMPAIGN", row.Campaign))
	return id, nil
}

// SubmitMastermind stores the mastermind form as a lead. Revenue and goals
// travel in the campaign fields because lp_leads has no dedicated columns.
func (s *IntakeService) SubmitMastermind(ctx context.Context, app models.MastermindApplication) (string, error) {
	utmCampaign := app.UTMCampaign
	if utmCampaign == "" {
		utmCampaign = "revenue:" + strings.TrimSpace(app.Revenue)
	}
	row := leadRow{
		Name:        strings.TrimSpace(app.Name),
		Email:       strings.TrimSpace(app.Email),
		Company:     nullable(app.Company),
		Campaign:    mastermindCampaign,
		FromPage:    mastermindPage,
		UTMSource:   nullable(app.UTMSource),
		UTMMedium:   nullable(app.UTMMedium),
		UTMCampaign: nullable(utmCampaign),
		UTMContent:  nullable(s.sanitizer.Clean(app.Goals, maxMastermindGoalsLen)),
		UTMTerm:     nullable(app.UTMTerm),
	}
	id, err := s.insert(ctx, s.records, leadsTable, row)
	if err != nil {
		return "", fmt.Errorf("failed to save mastermind application: %w", err)
	}
	s.logger.Info("Mastermind application stored", logger.Action("create_lead"), logger.F("CAMPAIGN", mastermindCampaign))
	return id, nil
}

// SubmitSeminarApplication stores a mastermind seminar application in status
// pending. The challenges double as the motivation the CRM lists.
func (s *IntakeService) SubmitSeminarApplication(ctx context.Context, app models.SeminarApplication) (string, error) {
	challenges := nullable(s.sanitizer.Clean(app.CurrentChallenges, 0))
	row := seminarRow{
		FirstName:         strings.TrimSpace(app.FirstName),
		LastName:          strings.TrimSpace(app.LastName),
		Email:             strings.TrimSpace(app.Email),
		Phone:             nullable(app.Phone),
		Company:           strings.TrimSpace(app.Company),
		Position:          nullable(app.Position),
		Motivation:        challenges,
		CurrentChallenges: challenges,
		Goals:             nullable(s.sanitizer.Clean(app.Goals, 0)),
		SeminarDate:       nullable(app.SeminarDate),
		Status:            models.StatusPending,
		Metadata:          map[string]any{},
	}
	id, err := s.insert(ctx, s.records, seminarTable, row)
	if err != nil {
		return "", fmt.Errorf("failed to save seminar application: %w", err)
	}
	s.logger.Info("Seminar application stored", logger.Action("submit_seminar_application"), logger.Application(id))
	return id, nil
}

// SubmitApplication stores a coaching application in status pending and
// announces it on the webhook. Webhook failures are only logged.
func (s *IntakeService) SubmitApplication(ctx context.Context, in models.ApplicationIntake, attr models.Attribution) (string, error) {
	answers := in.QuestionnaireAnswers
	if answers == nil {
		answers = map[string]string{}
	}
	row := applicationRow{
		FirstName:            strings.TrimSpace(in.FirstName),
		LastName:             strings.TrimSpace(in.LastName),
		Email:                strings.TrimSpace(in.Email),
		Phone:                in.Phone,
		Company:              nullable(in.Company),
		Position:             nullable(in.Position),
		ProgramInterest:      in.Program,
		QuestionnaireAnswers: answers,
		Motivation:           nullable(s.sanitizer.Clean(in.Motivation, 0)),
		Source:               applicationSource,
		UTMSource:            nullable(attr.UTMSource),
		UTMMedium:            nullable(attr.UTMMedium),
		UTMCampaign:          nullable(attr.UTMCampaign),
		SessionID:            nullable(attr.SessionID),
		Status:               models.StatusPending,
	}
	id, err := s.insert(ctx, s.records, applicationsTable, row)
	if err != nil {
		return "", fmt.Errorf("failed to save application: %w", err)
	}
	s.logger.Info("Application stored", logger.Action("submit_application"), logger.Application(id))

	if s.notifier != nil {
		err := s.notifier.Notify(ctx, EventApplicationSubmitted, map[string]any{
			"application_id":        id,
			"first_name":            row.FirstName,
			"last_name":             row.LastName,
			"email":                 row.Email,
			"phone":                 row.Phone,
			"company":               row.Company,
			"position":              row.Position,
			"program":               row.ProgramInterest,
			"questionnaire_answers": row.QuestionnaireAnswers,
			"motivation":            row.Motivation,
			"source":                applicationSource,
			"utm_source":            row.UTMSource,
			"utm_medium":            row.UTMMedium,
			"utm_campaign":          row.UTMCampaign,
		})
		if err != nil {
			s.logger.Warn("Application webhook failed", logger.Action("submit_application"), logger.Application(id), logger.Error(err))
		}
	}
	return id, nil
}

// RecordPixelEvent mirrors an ad-attribution event into the CRM store.
func (s *IntakeService) RecordPixelEvent(ctx context.Context, ev models.PixelEvent) error {
	data := ev.EventData
	if data == nil {
		data = map[string]any{}
	}
	row := pixelEventRow{
		PixelEvent: ev,
		EventData:  data,
		EventTime:  s.now().UTC().Format(time.RFC3339),
	}
	if err := s.crm.Insert(ctx, pixelEventsTable, row, store.WriteOptions{}, nil); err != nil {
		return fmt.Errorf("failed to store pixel event: %w", err)
	}
	s.logger.Debug("Pixel event stored", logger.Action("pixel_event"), logger.F("EVENT", ev.EventName))
	return nil
}

func (s *IntakeService) insert(ctx context.Context, records store.Records, table string, row any) (string, error) {
	var created []insertedRow
	if err := records.Insert(ctx, table, row, store.WriteOptions{ReturnRepresentation: true}, &created); err != nil {
		return "", err
	}
	if len(created) == 0 {
		return "", nil
	}
	return strings.Trim(string(created[0].ID), `"`), nil
}

func nullable(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func orDefault(s, def string) string {
	if s = strings.TrimSpace(s); s != "" {
		return s
	}
	return def
}
