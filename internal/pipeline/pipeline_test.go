package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/claims-cli/internal/model"
)

func TestProcess_CompleteClaimApproved(t *testing.T) {
	res, err := New(NewPatternStrategy(), 2).Process(context.Background(), completeClaim())
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, res.ClaimID)
	require.Len(t, res.Documents, 3)
	assert.Equal(t, model.DocumentTypeBill, res.Documents[0].Type)
	assert.Equal(t, model.DocumentTypeDischargeSummary, res.Documents[1].Type)
	assert.Equal(t, model.DocumentTypeIDCard, res.Documents[2].Type)

	assert.True(t, res.Validation.IsValid(), "%+v", res.Validation.Issues)
	assert.Equal(t, model.StatusApproved, res.Decision.Status)
	require.NotNil(t, res.Decision.ApprovedAmount)
	assert.True(t, res.Decision.ApprovedAmount.Equal(decimal.NewFromInt(12500)))
}

func TestProcess_MissingDocumentsRejected(t *testing.T) {
	docs := []model.RawDocument{rawDoc("hospital_bill.pdf", billText)}

	res, err := New(NewPatternStrategy(), 4).Process(context.Background(), docs)
	require.NoError(t, err)

	assert.False(t, res.Validation.IsValid())
	assert.Equal(t, model.StatusRejected, res.Decision.Status)
	assert.Nil(t, res.Decision.ApprovedAmount)

	var found bool
	for _, is := range res.Validation.Issues {
		if is.Field == "documents" {
			found = true
			assert.Equal(t, "Missing required documents: Discharge Summary, ID Card", is.Message)
		}
	}
	assert.True(t, found)
}

func TestProcess_PreservesInputOrder(t *testing.T) {
	docs := []model.RawDocument{
		rawDoc("id_card.pdf", idCardText),
		rawDoc("notes.txt", "Nothing recognisable in here at all"),
		rawDoc("hospital_bill.pdf", billText),
		rawDoc("discharge.pdf", dischargeText),
	}

	for range 10 {
		res, err := New(NewPatternStrategy(), 4).Process(context.Background(), docs)
		require.NoError(t, err)
		require.Len(t, res.Documents, len(docs))
		for i, d := range res.Documents {
			assert.Equal(t, docs[i].FileName, d.Document.FileName)
		}
		assert.Equal(t, model.DocumentTypeUnknown, res.Documents[1].Type)
	}
}

func TestProcess_LastDocumentOfTypeWins(t *testing.T) {
	lower := `Bill Number: HB-1
Patient Name: John Doe
Total Amount: Rs. 1,000`
	docs := append(completeClaim(), rawDoc("second_bill.pdf", lower))

	res, err := New(NewPatternStrategy(), 4).Process(context.Background(), docs)
	require.NoError(t, err)

	require.Len(t, res.Documents, 4)
	assert.Equal(t, model.StatusApproved, res.Decision.Status)
	require.NotNil(t, res.Decision.ApprovedAmount)
	assert.True(t, res.Decision.ApprovedAmount.Equal(decimal.NewFromInt(1000)))
	for _, is := range res.Validation.Issues {
		assert.NotContains(t, is.Message, "duplicate")
	}
}

func TestProcess_StrategyAgnostic(t *testing.T) {
	ctx := context.Background()
	s := &mockStrategy{}
	s.On("Classify", mock.Anything, mock.Anything).Return(model.DocumentTypeClaimForm, nil)
	s.On("Extract", mock.Anything, mock.Anything, model.DocumentTypeClaimForm).
		Return(model.EmptyRecord(model.DocumentTypeClaimForm), nil)

	res, err := New(s, 1).Process(ctx, []model.RawDocument{rawDoc("a.pdf", "claim form text")})
	require.NoError(t, err)
	assert.Equal(t, model.StatusRejected, res.Decision.Status)
	s.AssertNumberOfCalls(t, "Classify", 1)
	s.AssertNumberOfCalls(t, "Extract", 1)
}

func TestProcess_StrategyErrorFailsClaim(t *testing.T) {
	s := &mockStrategy{}
	s.On("Classify", mock.Anything, mock.Anything).Return(model.DocumentTypeUnknown, errors.New("backend exhausted"))

	res, err := New(s, 2).Process(context.Background(), completeClaim())
	require.Error(t, err)
	assert.Nil(t, res)
	assert.Contains(t, err.Error(), "backend exhausted")
}

func TestProcess_ModelStrategyEndToEnd(t *testing.T) {
	ctx := context.Background()
	c := &mockCompleter{}
	c.On("Complete", mock.Anything, operation("classify")).Return(`{"document_type": "bill"}`, nil).Once()
	c.On("Complete", mock.Anything, operation("extract:bill")).
		Return("```json\n{\"patient_name\": \"John Doe\", \"total_amount\": 900}\n```", nil).Once()

	res, err := New(NewModelStrategy(c), 1).Process(ctx, []model.RawDocument{rawDoc("upload.pdf", billText)})
	require.NoError(t, err)

	require.Len(t, res.Documents, 1)
	bill := res.Documents[0].Record.(*model.BillData)
	require.NotNil(t, bill.TotalAmount)
	assert.True(t, bill.TotalAmount.Equal(decimal.NewFromInt(900)))
	assert.Equal(t, model.StatusRejected, res.Decision.Status)
	c.AssertExpectations(t)
}

func TestClaimResultJSON(t *testing.T) {
	res, err := New(NewPatternStrategy(), 2).Process(context.Background(), completeClaim())
	require.NoError(t, err)

	data, err := json.Marshal(res)
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Contains(t, out, "claim_id")
	assert.Contains(t, out, "documents")
	assert.Contains(t, out, "validation")
	assert.Contains(t, out, "claim_decision")

	docs := out["documents"].([]any)
	first := docs[0].(map[string]any)
	assert.Equal(t, "hospital_bill.pdf", first["file_name"])
	assert.NotContains(t, first, "text")
	extracted := first["extracted_data"].(map[string]any)
	assert.Equal(t, "bill", extracted["type"])
}
