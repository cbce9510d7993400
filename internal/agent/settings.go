package agent

import (
	"context"
	"fmt"

	"github.com/mindfultube/mindfultube/internal/core"
	"github.com/mindfultube/mindfultube/internal/storage"
)

// Settings is the externally owned configuration the orchestrator reads
type Settings struct {
	Preferences core.UserPreferences `json:"preferences"`
	Privacy     core.PrivacySettings `json:"privacy"`
	Consent     core.UserConsent     `json:"consent"`
}

// DefaultSettings returns settings for a fresh profile
func DefaultSettings() Settings {
	return Settings{
		Preferences: core.DefaultPreferences(),
		Privacy:     core.DefaultPrivacy(),
	}
}

// consentRevoked is true only after an explicit revoke. A profile that
// never answered keeps learning locally.
func (s Settings) consentRevoked() bool {
	return s.Consent.Version != "" && !s.Consent.Granted
}

// learning reports whether agents may record anything
func (s Settings) learning() bool {
	return s.Preferences.AgentEnabled && !s.consentRevoked()
}

func (a *Agent) loadSettings(ctx context.Context) error {
	if a.store == nil {
		return nil
	}
	s := DefaultSettings()
	if _, err := storage.LoadJSON(ctx, a.store, core.KeyUserPreferences, &s.Preferences); err != nil {
		return err
	}
	if _, err := storage.LoadJSON(ctx, a.store, core.KeyPrivacySettings, &s.Privacy); err != nil {
		return err
	}
	if _, err := storage.LoadJSON(ctx, a.store, core.KeyUserConsent, &s.Consent); err != nil {
		return err
	}
	a.mu.Lock()
	a.settings = s
	a.mu.Unlock()
	return nil
}

func (a *Agent) saveSetting(ctx context.Context, key string, v interface{}) error {
	if a.store == nil {
		return nil
	}
	if err := storage.SaveJSON(ctx, a.store, key, v); err != nil {
		a.log.WithError(err).Warn("Failed to save %s", key)
		return err
	}
	return nil
}

// Settings returns a copy of the current settings
func (a *Agent) Settings() Settings {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.settings
}

// UpdatePreferences stores new user preferences and forwards changed time
// limits to the usage agent
func (a *Agent) UpdatePreferences(ctx context.Context, prefs core.UserPreferences) error {
	if prefs.DailyLimitMinutes <= 0 || prefs.WeeklyLimitMinutes <= 0 {
		return fmt.Errorf("%w: time limits must be positive", core.ErrInvalidInput)
	}

	a.mu.Lock()
	prev := a.settings.Preferences
	a.settings.Preferences = prefs
	a.mu.Unlock()

	if prev.DailyLimitMinutes != prefs.DailyLimitMinutes || prev.WeeklyLimitMinutes != prefs.WeeklyLimitMinutes {
		if err := a.safely(NameUsage, func() error {
			return a.usage.SetGoals(ctx, prefs.DailyLimitMinutes, prefs.WeeklyLimitMinutes)
		}); degraded(err) {
			return err
		}
	}
	return a.saveSetting(ctx, core.KeyUserPreferences, prefs)
}

// UpdatePrivacy stores new privacy gates
func (a *Agent) UpdatePrivacy(ctx context.Context, privacy core.PrivacySettings) error {
	a.mu.Lock()
	a.settings.Privacy = privacy
	a.mu.Unlock()
	return a.saveSetting(ctx, core.KeyPrivacySettings, privacy)
}

// GrantConsent records consent for the current consent version
func (a *Agent) GrantConsent(ctx context.Context) error {
	consent := core.UserConsent{Granted: true, Version: core.ConsentVersion, UpdatedAt: a.now()}
	a.mu.Lock()
	a.settings.Consent = consent
	a.mu.Unlock()
	return a.saveSetting(ctx, core.KeyUserConsent, consent)
}

// RevokeConsent records the revoke and wipes all learned state
func (a *Agent) RevokeConsent(ctx context.Context) error {
	consent := core.UserConsent{Granted: false, Version: core.ConsentVersion, UpdatedAt: a.now()}
	a.mu.Lock()
	a.settings.Consent = consent
	a.mu.Unlock()

	if !a.ResetAgentData(ctx) {
		a.log.Warn("Consent revoked but some agents failed to reset")
	}
	return a.saveSetting(ctx, core.KeyUserConsent, consent)
}
