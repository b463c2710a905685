// Package gsheets implements the queue store on top of Google Sheets.
//
// Each bank's queue is one worksheet inside a spreadsheet; the spreadsheet
// id and worksheet index come from the tenant registry. Every call uses
// the service-account key resolved for the tenant and bank.
package gsheets

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/eshaffer321/deposit-autoapprove/internal/adapters/credentials"
	"github.com/eshaffer321/deposit-autoapprove/internal/domain/bank"
	"github.com/eshaffer321/deposit-autoapprove/internal/domain/failure"
)

// driveFileScope lets the service account open documents shared with it
const driveFileScope = "https://www.googleapis.com/auth/drive.file"

// ServiceFactory builds a Sheets service for a credential
type ServiceFactory func(ctx context.Context, cred credentials.Credential) (*sheets.Service, error)

// JWTServiceFactory authenticates with the service-account key, the same
// way the spreadsheet owners share documents with the account's email.
func JWTServiceFactory(ctx context.Context, cred credentials.Credential) (*sheets.Service, error) {
	conf, err := google.JWTConfigFromJSON(cred.JSON, sheets.SpreadsheetsScope, driveFileScope)
	if err != nil {
		return nil, fmt.Errorf("parse service account key %s: %w", cred.Source, err)
	}
	// Token source outlives any single call context
	client := conf.Client(context.Background())
	return sheets.NewService(ctx, option.WithHTTPClient(client))
}

// serviceCache keeps one Sheets service per credential file
type serviceCache struct {
	factory ServiceFactory

	mu       sync.Mutex
	services map[string]*sheets.Service
}

func newServiceCache(factory ServiceFactory) *serviceCache {
	if factory == nil {
		factory = JWTServiceFactory
	}
	return &serviceCache{
		factory:  factory,
		services: make(map[string]*sheets.Service),
	}
}

func (c *serviceCache) get(ctx context.Context, cred credentials.Credential) (*sheets.Service, error) {
	key := cred.Source
	if key == "" {
		key = cred.ClientEmail
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if srv, ok := c.services[key]; ok {
		return srv, nil
	}
	srv, err := c.factory(ctx, cred)
	if err != nil {
		return nil, err
	}
	c.services[key] = srv
	return srv, nil
}

// sheetTitle returns the title of the worksheet at a 0-based index
func sheetTitle(ctx context.Context, srv *sheets.Service, documentID string, index int) (string, error) {
	doc, err := srv.Spreadsheets.Get(documentID).
		Fields(googleapi.Field("sheets.properties")).
		Context(ctx).
		Do()
	if err != nil {
		return "", err
	}
	for _, sh := range doc.Sheets {
		if sh.Properties != nil && int(sh.Properties.Index) == index {
			return sh.Properties.Title, nil
		}
	}
	return "", fmt.Errorf("document %s has no worksheet at index %d", documentID, index)
}

// titleCache remembers worksheet titles by document and index, saving a
// metadata request per call. Entries are dropped when a call against the
// title fails, so a renamed or reordered worksheet is picked up next time.
type titleCache struct {
	mu     sync.Mutex
	titles map[titleKey]string
}

type titleKey struct {
	documentID string
	index      int
}

func newTitleCache() *titleCache {
	return &titleCache{titles: make(map[titleKey]string)}
}

func (c *titleCache) get(ctx context.Context, srv *sheets.Service, documentID string, index int) (string, error) {
	key := titleKey{documentID: documentID, index: index}

	c.mu.Lock()
	title, ok := c.titles[key]
	c.mu.Unlock()
	if ok {
		return title, nil
	}

	title, err := sheetTitle(ctx, srv, documentID, index)
	if err != nil {
		return "", err
	}

	c.mu.Lock()
	c.titles[key] = title
	c.mu.Unlock()
	return title, nil
}

func (c *titleCache) forget(documentID string, index int) {
	c.mu.Lock()
	delete(c.titles, titleKey{documentID: documentID, index: index})
	c.mu.Unlock()
}

// readValues returns a range as strings; values[i] is the i-th row of the range
func readValues(ctx context.Context, srv *sheets.Service, documentID, rng string) ([][]string, error) {
	vr, err := srv.Spreadsheets.Values.Get(documentID, rng).
		ValueRenderOption("FORMATTED_VALUE").
		Context(ctx).
		Do()
	if err != nil {
		return nil, err
	}

	out := make([][]string, len(vr.Values))
	for i, row := range vr.Values {
		out[i] = make([]string, len(row))
		for j, v := range row {
			if v == nil {
				continue
			}
			out[i][j] = fmt.Sprint(v)
		}
	}
	return out, nil
}

// quoteSheet quotes a worksheet title for A1 notation
func quoteSheet(title string) string {
	return "'" + strings.ReplaceAll(title, "'", "''") + "'"
}

// classify converts a Sheets API error into an UpstreamError
func classify(op, tenant string, b bank.Bank, err error) error {
	if err == nil {
		return nil
	}
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return failure.FromStatus(failure.StoreQueue, op, tenant, b, gerr.Code, gerr.Message)
	}
	var ue *failure.UpstreamError
	if errors.As(err, &ue) {
		return err
	}
	if errors.Is(err, credentials.ErrNotFound) {
		return &failure.UpstreamError{
			Store:  failure.StoreCredentials,
			Op:     op,
			Tenant: tenant,
			Bank:   b,
			Kind:   failure.ErrAuth,
			Err:    err,
		}
	}
	return failure.Transport(failure.StoreQueue, op, tenant, b, err)
}
