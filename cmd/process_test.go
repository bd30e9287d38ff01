package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

const (
	billText      = "City Care Hospital\nBill Number: HB-1001\nPatient Name: John Doe\nTotal Amount: Rs. 12,500"
	dischargeText = "Discharge Summary\nPatient Name: John Doe\nDiagnosis: Dengue fever"
	idCardText    = "Star Health Insurance\nPolicy Number: SH-2024-001\nPatient Name: John Doe\nCoverage Amount: Rs. 5,00,000"
)

// claimFixture writes a fake pdftotext that prints its input file, plus three
// text files named as PDFs.
func claimFixture(t *testing.T) (string, []string) {
	t.Helper()
	dir := t.TempDir()

	bin := filepath.Join(dir, "pdftotext")
	require.NoError(t, os.WriteFile(bin, []byte("#!/bin/sh\ncat \"$4\"\n"), 0o755))

	files := []struct{ name, body string }{
		{"1_hospital_bill.pdf", billText},
		{"2_discharge.pdf", dischargeText},
		{"3_id_card.pdf", idCardText},
	}
	paths := make([]string, 0, len(files))
	for _, f := range files {
		p := filepath.Join(dir, f.name)
		require.NoError(t, os.WriteFile(p, []byte(f.body), 0o644))
		paths = append(paths, p)
	}
	return bin, paths
}

func processEnv(t *testing.T, bin string) *pipelineEnv {
	t.Helper()
	c := validConfig()
	c.Ingest.PdfToTextPath = bin
	withConfig(t, c)

	env, err := initPipeline("process")
	require.NoError(t, err)
	t.Cleanup(env.Close)
	return env
}

func TestRunProcess_JSON(t *testing.T) {
	bin, paths := claimFixture(t)
	env := processEnv(t, bin)

	var out bytes.Buffer
	require.NoError(t, runProcess(context.Background(), &out, env, paths, "json"))

	var res map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &res), out.String())
	assert.NotEmpty(t, res["claim_id"])

	docs := res["documents"].([]any)
	require.Len(t, docs, 3)
	assert.Equal(t, "1_hospital_bill.pdf", docs[0].(map[string]any)["file_name"])
	extracted := docs[0].(map[string]any)["extracted_data"].(map[string]any)
	assert.Equal(t, "bill", extracted["type"])

	dec := res["claim_decision"].(map[string]any)
	assert.Equal(t, "Approved", dec["status"])
	assert.Equal(t, float64(12500), dec["approved_amount"])
}

func TestRunProcess_YAML(t *testing.T) {
	bin, paths := claimFixture(t)
	env := processEnv(t, bin)

	var out bytes.Buffer
	require.NoError(t, runProcess(context.Background(), &out, env, paths, "yaml"))
	assert.Contains(t, out.String(), "\nclaim_decision:\n")

	var res struct {
		Documents []struct {
			FileName string `yaml:"file_name"`
		} `yaml:"documents"`
		Decision struct {
			Status         string  `yaml:"status"`
			ApprovedAmount float64 `yaml:"approved_amount"`
		} `yaml:"claim_decision"`
	}
	require.NoError(t, yaml.Unmarshal(out.Bytes(), &res), out.String())
	require.Len(t, res.Documents, 3)
	assert.Equal(t, "Approved", res.Decision.Status)
	assert.InDelta(t, 12500, res.Decision.ApprovedAmount, 0.001)
}

func TestRunProcess_MissingDocuments(t *testing.T) {
	bin, paths := claimFixture(t)
	env := processEnv(t, bin)

	var out bytes.Buffer
	require.NoError(t, runProcess(context.Background(), &out, env, paths[:1], "json"))

	var res map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &res))
	dec := res["claim_decision"].(map[string]any)
	assert.Equal(t, "Rejected", dec["status"])
	assert.Nil(t, dec["approved_amount"])
}

func TestRunProcess_UnsupportedExtension(t *testing.T) {
	bin, _ := claimFixture(t)
	env := processEnv(t, bin)

	p := filepath.Join(t.TempDir(), "notes.docx")
	require.NoError(t, os.WriteFile(p, []byte("x"), 0o644))

	err := runProcess(context.Background(), &bytes.Buffer{}, env, []string{p}, "json")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported file type: notes.docx")
}

func TestRunProcess_MissingFile(t *testing.T) {
	bin, _ := claimFixture(t)
	env := processEnv(t, bin)

	err := runProcess(context.Background(), &bytes.Buffer{}, env, []string{"/nonexistent/bill.pdf"}, "json")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read /nonexistent/bill.pdf")
}

func TestAllowedFile_Images(t *testing.T) {
	c := validConfig()
	withConfig(t, c)
	assert.False(t, allowedFile("card.png"))

	c.Upload.AllowImages = true
	assert.True(t, allowedFile("card.png"))
	assert.True(t, allowedFile("bill.PDF"))
}

func TestBlockStyle(t *testing.T) {
	var node yaml.Node
	require.NoError(t, yaml.Unmarshal([]byte(`{"a":[1,2],"b":"true","c":"x"}`), &node))
	blockStyle(&node)

	var out bytes.Buffer
	enc := yaml.NewEncoder(&out)
	require.NoError(t, enc.Encode(&node))
	require.NoError(t, enc.Close())

	assert.NotContains(t, out.String(), "[")
	assert.Contains(t, out.String(), `b: "true"`)
	assert.Contains(t, out.String(), "c: x")
}
