package services

import (
	"testing"

	"github.com/google/uuid"

	"github.com/jmcgrail/riskindex-engine/internal/models"
	"github.com/jmcgrail/riskindex-engine/internal/repository"
)

func TestDealService_CreateAndGet(t *testing.T) {
	tr := newTestRepos()
	svc := newDealService(tr.repos)
	userID := uuid.New().String()

	deal, err := svc.Create(&repository.DealForm{
		Name:          "Riverside Industrial Park",
		AssetType:     "Industrial",
		Market:        "Memphis, TN",
		PurchasePrice: floatPtr(12500000),
	}, userID)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if deal.ID == uuid.Nil {
		t.Fatal("expected deal ID to be assigned")
	}

	got, err := svc.GetByID(deal.ID.String())
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Name != "Riverside Industrial Park" || got.AssetType != "Industrial" {
		t.Errorf("unexpected deal %+v", got)
	}
}

func TestDealService_Create_RejectsNonPositivePrice(t *testing.T) {
	tr := newTestRepos()
	svc := newDealService(tr.repos)

	_, err := svc.Create(&repository.DealForm{
		Name:          "Free Building",
		AssetType:     "Office",
		PurchasePrice: floatPtr(0),
	}, uuid.New().String())
	if err == nil {
		t.Fatal("expected validation error for zero purchase price")
	}
}

func TestDealService_GetByID_InvalidID(t *testing.T) {
	tr := newTestRepos()
	svc := newDealService(tr.repos)

	if _, err := svc.GetByID("not-a-uuid"); err == nil {
		t.Fatal("expected error for malformed deal ID")
	}
}

func TestDealService_RecordOutcome(t *testing.T) {
	tr := newTestRepos()
	svc := newDealService(tr.repos)
	deal := seedDeal(t, tr, "Retail", "Phoenix, AZ")
	userID := uuid.New().String()

	outcome, err := svc.RecordOutcome(deal.ID.String(), &repository.OutcomeForm{
		OutcomeType: string(models.OutcomeDefaultFlag),
		Notes:       "Loan transferred to special servicing",
	}, userID)
	if err != nil {
		t.Fatalf("RecordOutcome: %v", err)
	}
	if outcome.OutcomeType != models.OutcomeDefaultFlag {
		t.Errorf("expected default_flag, got %s", outcome.OutcomeType)
	}

	// Recording again replaces the annotation
	updated, err := svc.RecordOutcome(deal.ID.String(), &repository.OutcomeForm{
		OutcomeType:  string(models.OutcomeLossRate),
		OutcomeValue: floatPtr(0.12),
	}, userID)
	if err != nil {
		t.Fatalf("second RecordOutcome: %v", err)
	}
	if updated.ID != outcome.ID {
		t.Error("re-recording must keep the same outcome row")
	}

	got, err := svc.GetOutcome(deal.ID.String())
	if err != nil {
		t.Fatalf("GetOutcome: %v", err)
	}
	if got.OutcomeType != models.OutcomeLossRate || got.OutcomeValue == nil || *got.OutcomeValue != 0.12 {
		t.Errorf("expected replaced outcome, got %+v", got)
	}
}

func TestDealService_RecordOutcome_Rejections(t *testing.T) {
	tr := newTestRepos()
	svc := newDealService(tr.repos)
	deal := seedDeal(t, tr, "Retail", "Phoenix, AZ")
	userID := uuid.New().String()

	cases := []struct {
		name   string
		dealID string
		form   *repository.OutcomeForm
	}{
		{"unknown outcome type", deal.ID.String(), &repository.OutcomeForm{OutcomeType: "went_fine"}},
		{"negative value", deal.ID.String(), &repository.OutcomeForm{
			OutcomeType:  string(models.OutcomeLossRate),
			OutcomeValue: floatPtr(-0.5),
		}},
		{"unknown deal", uuid.New().String(), &repository.OutcomeForm{
			OutcomeType: string(models.OutcomeDefaultFlag),
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.RecordOutcome(tc.dealID, tc.form, userID); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}
