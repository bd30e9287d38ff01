package pipeline

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/sells-group/claims-cli/internal/completion"
	"github.com/sells-group/claims-cli/internal/model"
)

// --- Completer Mock ---

type mockCompleter struct {
	mock.Mock
}

func (m *mockCompleter) Complete(ctx context.Context, req completion.Request) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

func operation(op string) any {
	return mock.MatchedBy(func(req completion.Request) bool { return req.Operation == op })
}

// --- Strategy Mock ---

type mockStrategy struct {
	mock.Mock
}

func (m *mockStrategy) Name() string { return "mock" }

func (m *mockStrategy) Classify(ctx context.Context, doc model.RawDocument) (model.DocumentType, error) {
	args := m.Called(ctx, doc)
	return args.Get(0).(model.DocumentType), args.Error(1)
}

func (m *mockStrategy) Extract(ctx context.Context, text string, t model.DocumentType) (model.Record, error) {
	args := m.Called(ctx, text, t)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(model.Record), args.Error(1)
}

// --- Fixtures ---

const (
	billText = `City Care Hospital
12 MG Road, Hyderabad
Bill Number: HB-1001
Patient Name: John Doe
Date: 12/03/2024
Total Amount: Rs. 12,500`

	dischargeText = `Discharge Summary
Patient Name: John Doe
Diagnosis: Dengue fever
Admission Date: 10/03/2024
Discharge Date: 12/03/2024`

	idCardText = `Star Health Insurance
Policy Number: SH-2024-001
Patient Name: John Doe
Coverage Amount: Rs. 5,00,000`
)

func rawDoc(name, text string) model.RawDocument {
	return model.NewRawDocument(name, text, "en", model.SourceTypePDF)
}

func completeClaim() []model.RawDocument {
	return []model.RawDocument{
		rawDoc("hospital_bill.pdf", billText),
		rawDoc("discharge.pdf", dischargeText),
		rawDoc("id_card.pdf", idCardText),
	}
}
