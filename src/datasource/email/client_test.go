package email

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"EnadeInsights/src/config"
	"EnadeInsights/src/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMail struct {
	emails       []*Email
	connectErr   error
	fetchErr     error
	disconnected bool
}

func (f *fakeMail) Connect() error                       { return f.connectErr }
func (f *fakeMail) Disconnect()                          { f.disconnected = true }
func (f *fakeMail) FetchUnreadEmails() ([]*Email, error) { return f.emails, f.fetchErr }

func testLogger(t *testing.T) *storage.Logger {
	t.Helper()
	logger, err := storage.NewLogger(filepath.Join(t.TempDir(), "app.log"))
	require.NoError(t, err)
	logger.SetConsole(io.Discard)
	t.Cleanup(func() { logger.Close() })
	return logger
}

func TestFilterLatestTargetEmail(t *testing.T) {
	now := time.Now()
	emails := []*Email{
		{UID: 1, Subject: "Microdados ENADE 2019", Date: now.Add(-2 * time.Hour)},
		{UID: 2, Subject: "Reunião", Date: now},
		{UID: 3, Subject: "Microdados ENADE 2021", Date: now.Add(-time.Hour)},
	}

	got := filterLatestTargetEmail(emails, "Microdados ENADE")
	require.NotNil(t, got)
	assert.Equal(t, uint32(3), got.UID)

	assert.Nil(t, filterLatestTargetEmail(emails, "Censo"))
}

func TestCheckAndProcessEmails(t *testing.T) {
	logger := testLogger(t)

	svc := &fakeMail{emails: []*Email{
		{UID: 7, Subject: "Microdados ENADE", Date: time.Now()},
	}}
	got, err := CheckAndProcessEmails(svc, "ENADE", logger)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, uint32(7), got.UID)
	assert.True(t, svc.disconnected)

	got, err = CheckAndProcessEmails(&fakeMail{}, "ENADE", logger)
	assert.NoError(t, err)
	assert.Nil(t, got)

	_, err = CheckAndProcessEmails(&fakeMail{connectErr: errors.New("refused")}, "ENADE", logger)
	assert.ErrorContains(t, err, "refused")

	_, err = CheckAndProcessEmails(&fakeMail{fetchErr: errors.New("timeout")}, "ENADE", logger)
	assert.ErrorContains(t, err, "timeout")
}

func TestDecodeHeader(t *testing.T) {
	assert.Equal(t, "Microdados São Paulo", decodeHeader("=?ISO-8859-1?Q?Microdados_S=E3o_Paulo?="))
	assert.Equal(t, "兴效能", decodeHeader("=?GBK?B?0MvQp8Tc?="))
	assert.Equal(t, "plain", decodeHeader("plain"))
}

func TestParseMessage(t *testing.T) {
	raw := strings.Join([]string{
		"From: inep@example.org",
		"Subject: =?ISO-8859-1?Q?Microdados_ENADE_S=E3o?=",
		"Date: Mon, 02 Jan 2023 15:04:05 +0000",
		"MIME-Version: 1.0",
		"Content-Type: multipart/mixed; boundary=XYZ",
		"",
		"--XYZ",
		"Content-Type: text/plain",
		"",
		"segue em anexo",
		"--XYZ",
		"Content-Type: text/csv",
		`Content-Disposition: attachment; filename="2021.csv"`,
		"",
		"NU_ANO;NT_GER",
		"2021;55.5",
		"--XYZ--",
		"",
	}, "\r\n")

	msg, err := ParseMessage(strings.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, "Microdados ENADE São", msg.Subject)
	assert.Equal(t, 2023, msg.Date.Year())
	require.Len(t, msg.Attachments, 1)
	assert.Equal(t, "2021.csv", msg.Attachments[0].Filename)
	assert.Contains(t, string(msg.Attachments[0].Content), "2021;55.5")
}

func TestAttachmentHandler(t *testing.T) {
	dir := t.TempDir()
	h := NewAttachmentHandler("ENADE", dir, "2021.txt", nil)

	msg := &Email{
		UID:     42,
		Subject: "Microdados ENADE",
		Attachments: []*Attachment{
			{Filename: "leia-me.pdf", Content: []byte("%PDF")},
			{Filename: "microdados.CSV", Content: []byte("a;b\n1;2\n")},
			{Filename: "dicionario.xlsx", Content: []byte("PK")},
		},
	}

	saved, err := h.Handle(msg)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "2021.txt"),
		filepath.Join(dir, "dicionario.xlsx"),
	}, saved)

	raw, err := os.ReadFile(filepath.Join(dir, "2021.txt"))
	require.NoError(t, err)
	assert.Equal(t, "a;b\n1;2\n", string(raw))

	again, err := h.Handle(msg)
	assert.NoError(t, err)
	assert.Empty(t, again)

	other, err := h.Handle(&Email{UID: 43, Subject: "Reunião"})
	assert.NoError(t, err)
	assert.Empty(t, other)
}

func TestNewReportEmail(t *testing.T) {
	cfg := &config.Config{}
	cfg.SendEmail.Username = "bot@example.org"
	cfg.SendEmail.To = []string{"reitoria@example.org"}
	cfg.SendEmail.Subject = "ENADE report"

	attachment := filepath.Join(t.TempDir(), "nota_por_curso.csv")
	require.NoError(t, os.WriteFile(attachment, []byte("curso,nota\n"), 0644))

	e, err := NewReportEmail(cfg, "3 reports", []string{attachment})
	require.NoError(t, err)
	assert.Equal(t, []string{"reitoria@example.org"}, e.To)

	raw, err := e.Bytes()
	require.NoError(t, err)
	assert.Contains(t, string(raw), "ENADE report")
	assert.Contains(t, string(raw), "nota_por_curso.csv")

	_, err = NewReportEmail(cfg, "", []string{filepath.Join(t.TempDir(), "absent.csv")})
	assert.Error(t, err)

	cfg.SendEmail.To = nil
	assert.Error(t, SendReport(cfg, "", nil))
}
