package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutputName_Suffix(t *testing.T) {
	now := time.Now()
	tests := map[string]string{
		"report.pdf":     "report_dop.pdf",
		"REPORT.PDF":     "REPORT_dop.pdf",
		"a.pdf.pdf":      "a.pdf_dop.pdf",
		"notes":          "notes_dop.pdf",
		"pdf":            "pdf_dop.pdf",
		"scan.final.pdf": "scan.final_dop.pdf",
	}
	for in, want := range tests {
		assert.Equal(t, want, NamingSuffix.OutputName(in, now), in)
	}
}

func TestOutputName_Timestamp(t *testing.T) {
	at := time.UnixMilli(1700000000123)
	assert.Equal(t, "1700000000123-report.pdf", NamingTimestamp.OutputName("report.pdf", at))
	assert.Regexp(t, `^\d+-report\.pdf$`, NamingTimestamp.OutputName("report.pdf", time.Now()))
}

func TestParseNamingStrategy(t *testing.T) {
	for in, want := range map[string]NamingStrategy{
		"":          NamingTimestamp,
		"timestamp": NamingTimestamp,
		"SUFFIX":    NamingSuffix,
		" suffix ":  NamingSuffix,
	} {
		got, err := ParseNamingStrategy(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseNamingStrategy("random")
	assert.Error(t, err)
}
