package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"salesdash/internal/core"
	"salesdash/internal/records"

	"golang.org/x/oauth2"
	gauth "golang.org/x/oauth2/google"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// Source reads the sales dataset from a Google Sheets tab whose first row is the header.
type Source struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
	columns       string
}

// Ensure interface conformance
var _ records.Source = (*Source)(nil)

// Config describes where the dataset lives in the spreadsheet.
type Config struct {
	SpreadsheetID string
	SheetName     string
	// Columns is the A1 column span to read, e.g. "A:F".
	Columns string
	// CredentialsJSON and CredentialsFile hold a service account key.
	// When both are empty the key is taken from the environment.
	CredentialsJSON string
	CredentialsFile string
}

// NewFromEnv creates a Sheets source using environment variables.
// Required: GOOGLE_SPREADSHEET_ID
// Optional: GOOGLE_SHEET_NAME (default "Sales"), GOOGLE_SHEET_COLUMNS (default "A:Z")
// Auth: GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE or GOOGLE_APPLICATION_CREDENTIALS.
func NewFromEnv(ctx context.Context) (*Source, error) {
	return New(ctx, Config{
		SpreadsheetID: os.Getenv("GOOGLE_SPREADSHEET_ID"),
		SheetName:     os.Getenv("GOOGLE_SHEET_NAME"),
		Columns:       os.Getenv("GOOGLE_SHEET_COLUMNS"),
	})
}

// New creates a Sheets source from explicit configuration.
func New(ctx context.Context, cfg Config) (*Source, error) {
	spreadsheetID := strings.TrimSpace(cfg.SpreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	svc, err := newSheetsService(ctx, cfg.CredentialsJSON, cfg.CredentialsFile)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return newSource(svc, spreadsheetID, cfg.SheetName, cfg.Columns), nil
}

func newSource(svc *gsheet.Service, spreadsheetID, sheetName, columns string) *Source {
	sheetName = strings.TrimSpace(sheetName)
	if sheetName == "" {
		sheetName = "Sales"
	}
	columns = strings.TrimSpace(columns)
	if columns == "" {
		columns = "A:Z"
	}
	return &Source{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		sheetName:     sheetName,
		columns:       columns,
	}
}

// newSheetsService initializes a read-only Sheets service using Service Account credentials.
func newSheetsService(ctx context.Context, serviceAccountJSON, serviceAccountFile string) (*gsheet.Service, error) {
	serviceAccountJSON = strings.TrimSpace(serviceAccountJSON)
	serviceAccountFile = strings.TrimSpace(serviceAccountFile)
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountJSON = strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	}
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	var err error

	switch {
	case serviceAccountJSON != "":
		slog.InfoContext(ctx, "Using inline JSON credentials")
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		slog.InfoContext(ctx, "Reading credentials from file", "path", serviceAccountFile)
		credentialsJSON, err = os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	creds, err := gauth.CredentialsFromJSON(ctx, credentialsJSON, gsheet.SpreadsheetsReadonlyScope)
	if err != nil {
		return nil, fmt.Errorf("parse service account credentials: %w", err)
	}

	client := newHTTPClientWithPooling()
	client.Transport = &oauth2.Transport{Source: creds.TokenSource, Base: client.Transport}

	service, err := gsheet.NewService(ctx, goption.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

// newHTTPClientWithPooling creates an HTTP client for the Sheets API
// with connection pooling and bounded timeouts.
func newHTTPClientWithPooling() *http.Client {
	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}

	transport := &http.Transport{
		DialContext:           dialer.DialContext,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		MaxConnsPerHost:       50,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 30 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		ForceAttemptHTTP2:     true,
	}

	return &http.Client{
		Transport: transport,
		Timeout:   60 * time.Second,
	}
}

// Range returns the A1 notation read by Load.
func (s *Source) Range() string {
	return fmt.Sprintf("%s!%s", s.sheetName, s.columns)
}

// Load reads the whole configured range and converts each row to a record.
func (s *Source) Load(ctx context.Context) ([]core.Record, error) {
	if s.svc == nil {
		return nil, errors.New("sheets service not initialized")
	}
	rng := s.Range()
	resp, err := s.svc.Spreadsheets.Values.Get(s.spreadsheetID, rng).
		ValueRenderOption("UNFORMATTED_VALUE").
		DateTimeRenderOption("FORMATTED_STRING").
		Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rng, err)
	}
	recs, err := parseValues(resp.Values)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", rng, err)
	}
	slog.DebugContext(ctx, "Loaded records from sheet", "range", rng, "records", len(recs))
	return recs, nil
}
