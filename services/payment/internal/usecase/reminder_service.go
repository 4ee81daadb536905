package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	domainErrors "github.com/shivam7053/raga-vachika/services/payment/internal/domain/errors"
	"github.com/shivam7053/raga-vachika/services/payment/internal/domain/model"
	"github.com/shivam7053/raga-vachika/services/payment/internal/domain/repository"
)

// ReminderConfig controls session reminder delivery
type ReminderConfig struct {
	// Window is how far ahead a live session is considered due
	Window time.Duration
	// Pacing is the pause between two consecutive sends
	Pacing  time.Duration
	SiteURL string
}

// ReminderSummary reports one reminder run
type ReminderSummary struct {
	SessionsChecked int `json:"sessionsChecked"`
	Sent            int `json:"sent"`
	AlreadySent     int `json:"alreadySent"`
	Skipped         int `json:"skipped"`
	Failed          int `json:"failed"`
}

// ReminderService emails enrolled users before live sessions, at most once per (session, user)
type ReminderService struct {
	masterclasses repository.MasterclassRepository
	enrollments   repository.EnrollmentRepository
	reminders     repository.ReminderRepository
	users         repository.UserRepository
	mailer        Mailer
	config        ReminderConfig
	logger        *zap.Logger
	now           func() time.Time
	sleep         func(ctx context.Context, d time.Duration) error
}

// NewReminderService creates a new reminder service
func NewReminderService(repos *repository.Repositories, mailer Mailer, config ReminderConfig, logger *zap.Logger) *ReminderService {
	if config.Window <= 0 {
		config.Window = 12 * time.Hour
	}
	return &ReminderService{
		masterclasses: repos.Masterclass,
		enrollments:   repos.Enrollment,
		reminders:     repos.Reminder,
		users:         repos.Users,
		mailer:        mailer,
		config:        config,
		logger:        logger,
		now:           func() time.Time { return time.Now().UTC() },
		sleep:         sleepContext,
	}
}

// SendDueReminders emails every enrolled user of every live session starting within the window
func (s *ReminderService) SendDueReminders(ctx context.Context) (*ReminderSummary, error) {
	summary := &ReminderSummary{}
	if s.mailer == nil {
		s.logger.Warn("Reminder run skipped, email transport disabled")
		return summary, nil
	}

	now := s.now()
	sessions, err := s.masterclasses.ListLiveSessionsBetween(ctx, now, now.Add(s.config.Window))
	if err != nil {
		return nil, fmt.Errorf("failed to list upcoming sessions: %w", err)
	}

	masterclasses := make(map[string]*model.Masterclass)
	for i := range sessions {
		session := &sessions[i]
		summary.SessionsChecked++

		mc, ok := masterclasses[session.MasterclassID]
		if !ok {
			mc, err = s.masterclasses.GetByID(ctx, session.MasterclassID)
			if err != nil {
				if errors.Is(err, domainErrors.ErrMasterclassNotFound) {
					s.logger.Warn("Session references missing masterclass",
						zap.String("session_id", session.ID),
						zap.String("masterclass_id", session.MasterclassID))
					continue
				}
				return summary, fmt.Errorf("failed to load masterclass: %w", err)
			}
			masterclasses[session.MasterclassID] = mc
		}

		userIDs, err := s.enrollments.ListUserIDs(ctx, mc.ID)
		if err != nil {
			return summary, fmt.Errorf("failed to list enrolled users: %w", err)
		}
		if len(userIDs) == 0 {
			continue
		}

		profiles, err := s.users.GetByIDs(ctx, userIDs)
		if err != nil {
			return summary, fmt.Errorf("failed to load user profiles: %w", err)
		}

		for j := range profiles {
			if err := s.remind(ctx, &profiles[j], mc, session, summary); err != nil {
				return summary, err
			}
		}
	}

	s.logger.Info("Session reminder run completed",
		zap.Int("sessions", summary.SessionsChecked),
		zap.Int("sent", summary.Sent),
		zap.Int("already_sent", summary.AlreadySent),
		zap.Int("skipped", summary.Skipped),
		zap.Int("failed", summary.Failed))

	return summary, nil
}

// RemindUpcoming sends reminders for sessions of mc already inside the window to a user who
// just enrolled, so a late purchase still gets notified.
func (s *ReminderService) RemindUpcoming(ctx context.Context, userID string, mc *model.Masterclass) (*ReminderSummary, error) {
	summary := &ReminderSummary{}
	if s.mailer == nil || mc == nil {
		return summary, nil
	}

	profile, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user profile: %w", err)
	}
	if profile == nil {
		summary.Skipped++
		return summary, nil
	}

	now := s.now()
	for i := range mc.Sessions {
		session := &mc.Sessions[i]
		if !session.StartsWithin(now, s.config.Window) {
			continue
		}
		summary.SessionsChecked++
		if err := s.remind(ctx, profile, mc, session, summary); err != nil {
			return summary, err
		}
	}
	return summary, nil
}

// remind claims the (session, user) slot, then sends. A failed send releases the claim.
// Only context cancellation is returned; per-user failures are counted.
func (s *ReminderService) remind(ctx context.Context, profile *model.UserProfile, mc *model.Masterclass, session *model.MasterclassSession, summary *ReminderSummary) error {
	if profile.Email == "" {
		summary.Skipped++
		return nil
	}

	claimed, err := s.reminders.Claim(ctx, &model.ReminderDelivery{
		SessionID: session.ID,
		UserID:    profile.ID,
		SentAt:    s.now(),
	})
	if err != nil {
		s.logger.Error("Failed to claim reminder",
			zap.String("session_id", session.ID),
			zap.String("user_id", profile.ID),
			zap.Error(err))
		summary.Failed++
		return nil
	}
	if !claimed {
		summary.AlreadySent++
		return nil
	}

	if summary.Sent > 0 && s.config.Pacing > 0 {
		if err := s.sleep(ctx, s.config.Pacing); err != nil {
			s.release(session.ID, profile.ID)
			return err
		}
	}

	msg, err := sessionReminderEmail(profile, mc, session, s.config.SiteURL)
	if err == nil {
		err = s.mailer.Send(ctx, msg)
	}
	if err != nil {
		s.logger.Error("Failed to send session reminder",
			zap.String("session_id", session.ID),
			zap.String("user_id", profile.ID),
			zap.Error(err))
		s.release(session.ID, profile.ID)
		summary.Failed++
		return nil
	}

	summary.Sent++
	return nil
}

func (s *ReminderService) release(sessionID, userID string) {
	// the request context may already be cancelled
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.reminders.Release(ctx, sessionID, userID); err != nil {
		s.logger.Error("Failed to release reminder claim",
			zap.String("session_id", sessionID),
			zap.String("user_id", userID),
			zap.Error(err))
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
