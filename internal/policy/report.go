package policy

import (
	"context"
	"time"
)

// SharingRecord describes data handed to a third party. The assistant never
// shares data with third parties, so the list in every report is empty; the
// type exists so the report shape is stable for auditors.
type SharingRecord struct {
	Recipient string    `json:"recipient"`
	DataType  string    `json:"data_type"`
	SharedAt  time.Time `json:"shared_at"`
}

// UserRights enumerates the rights a user can exercise against their data.
type UserRights struct {
	Access              bool   `json:"access"`
	Erasure             bool   `json:"erasure"`
	Portability         bool   `json:"portability"`
	ErasureResponseTime string `json:"erasure_response_time"`
}

// ComplianceStatus tags the report with the regulation applicable to the
// user's age tier. It is a derived view, recomputed on every call.
type ComplianceStatus struct {
	Regulation string  `json:"regulation"`
	AgeTier    AgeTier `json:"age_tier"`
	Compliant  bool    `json:"compliant"`
}

// PrivacyReport is the read-only view assembled for a user on demand.
type PrivacyReport struct {
	UserID          string           `json:"user_id"`
	GeneratedAt     time.Time        `json:"generated_at"`
	PrivacyLevel    Level            `json:"privacy_level"`
	Retention       RetentionPolicy  `json:"retention"`
	SharingActivity []SharingRecord  `json:"sharing_activity"`
	UserRights      UserRights       `json:"user_rights"`
	Compliance      ComplianceStatus `json:"compliance"`
}

// BuildReport assembles the current policy view for a user. It is a pure
// read: nothing is persisted and the report is recomputed every time.
func BuildReport(ctx context.Context, store Store, userID string, now time.Time) (PrivacyReport, error) {
	level, err := store.LevelFor(ctx, userID)
	if err != nil {
		return PrivacyReport{}, err
	}
	retention, err := store.RetentionFor(ctx, userID)
	if err != nil {
		return PrivacyReport{}, err
	}
	tier, err := store.AgeTierFor(ctx, userID)
	if err != nil {
		return PrivacyReport{}, err
	}

	erasure := "30 days"
	if level == LevelMaximum {
		erasure = "Immediate"
	}

	return PrivacyReport{
		UserID:          userID,
		GeneratedAt:     now.UTC(),
		PrivacyLevel:    level,
		Retention:       retention,
		SharingActivity: []SharingRecord{},
		UserRights: UserRights{
			Access:              true,
			Erasure:             true,
			Portability:         true,
			ErasureResponseTime: erasure,
		},
		Compliance: ComplianceStatus{
			Regulation: tier.Regulation(),
			AgeTier:    tier,
			Compliant:  retention.RetentionDays <= MaxRetentionDays,
		},
	}, nil
}
