// Package credentials resolves the service-account credential used to reach
// a tenant's queue documents.
//
// Files are laid out per tenant:
//
//	<dir>/<tenant>/keys.json         registry document
//	<dir>/<tenant>/keys_<BANK>.json  per-bank queue document
package credentials

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/eshaffer321/deposit-autoapprove/internal/domain/bank"
)

// ErrNotFound is returned when no credential file exists for the request
var ErrNotFound = errors.New("credential not found")

// Credential is a Google service-account key
type Credential struct {
	ClientEmail string
	JSON        []byte // raw key file, as expected by golang.org/x/oauth2/google
	Source      string // file path, for logs
}

// Resolver resolves credentials for a tenant
type Resolver interface {
	Resolve(tenant string, b bank.Bank) (Credential, error)
	ResolveRegistry(tenant string) (Credential, error)
}

// FileResolver reads credentials from disk and caches them in memory
type FileResolver struct {
	dir   string
	mu    sync.RWMutex
	cache map[string]Credential
}

// NewFileResolver creates a resolver rooted at dir
func NewFileResolver(dir string) *FileResolver {
	return &FileResolver{
		dir:   dir,
		cache: make(map[string]Credential),
	}
}

// Resolve returns the credential for one bank's queue document
func (r *FileResolver) Resolve(tenant string, b bank.Bank) (Credential, error) {
	if !b.Valid() {
		return Credential{}, fmt.Errorf("resolve credential: %w", bank.ErrUnknownBank)
	}
	return r.load(tenant, "keys_"+string(b)+".json")
}

// ResolveRegistry returns the credential for the tenant's registry document
func (r *FileResolver) ResolveRegistry(tenant string) (Credential, error) {
	return r.load(tenant, "keys.json")
}

func (r *FileResolver) load(tenant, file string) (Credential, error) {
	if err := validateTenant(tenant); err != nil {
		return Credential{}, err
	}
	path := filepath.Join(r.dir, tenant, file)

	r.mu.RLock()
	cred, ok := r.cache[path]
	r.mu.RUnlock()
	if ok {
		return cred, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Credential{}, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return Credential{}, fmt.Errorf("read credential %s: %w", path, err)
	}

	cred, err = Parse(data)
	if err != nil {
		return Credential{}, fmt.Errorf("parse credential %s: %w", path, err)
	}
	cred.Source = path

	r.mu.Lock()
	r.cache[path] = cred
	r.mu.Unlock()

	return cred, nil
}

// Parse validates a service-account key file
func Parse(data []byte) (Credential, error) {
	var key struct {
		ClientEmail string `json:"client_email"`
		PrivateKey  string `json:"private_key"`
	}
	if err := json.Unmarshal(data, &key); err != nil {
		return Credential{}, err
	}
	if key.ClientEmail == "" || key.PrivateKey == "" {
		return Credential{}, errors.New("client_email and private_key are required")
	}
	return Credential{ClientEmail: key.ClientEmail, JSON: data}, nil
}

// validateTenant keeps tenant names from escaping the credentials directory
func validateTenant(tenant string) error {
	if tenant == "" || tenant == "." || tenant == ".." ||
		strings.ContainsAny(tenant, `/\`) {
		return fmt.Errorf("invalid tenant %q", tenant)
	}
	return nil
}
