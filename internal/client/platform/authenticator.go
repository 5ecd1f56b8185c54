package platform

import (
	"context"
	"crypto/subtle"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/dmitrijs2005/panelkeeper/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/panelkeeper/internal/common"
	"github.com/dmitrijs2005/panelkeeper/internal/cryptox"
	"github.com/dmitrijs2005/panelkeeper/internal/dbx"
	"golang.org/x/term"
)

var (
	ErrAuthCancelled      = errors.New("authentication cancelled")
	ErrAuthFailed         = errors.New("authentication failed")
	ErrPassphraseTooShort = errors.New("passphrase too short")
	ErrNotEnrolled        = errors.New("no unlock passphrase enrolled")
)

const (
	keyAuthSalt     = "auth_salt"
	keyAuthVerifier = "auth_verifier"

	minPassphraseLen = 4
	saltSize         = 16
)

// readPassword and isTerminal are test seams for golang.org/x/term.
var (
	readPassword = term.ReadPassword
	isTerminal   = term.IsTerminal
)

// PromptFunc asks the user for the unlock passphrase.
type PromptFunc func(ctx context.Context) ([]byte, error)

// TerminalPrompt reads the passphrase from stdin without echo.
func TerminalPrompt(w io.Writer) PromptFunc {
	return func(context.Context) ([]byte, error) {
		fmt.Fprint(w, "Unlock passphrase: ")
		pw, err := readPassword(int(os.Stdin.Fd()))
		fmt.Fprintln(w)
		return pw, err
	}
}

// PassphraseAuthenticator verifies a locally enrolled passphrase. Only an
// argon2id verifier is stored. It plays the role of the device biometric
// sensor: "hardware" is an interactive terminal and "enrolled" means a
// passphrase has been set.
type PassphraseAuthenticator struct {
	db     *sql.DB
	prompt PromptFunc

	mu     sync.Mutex
	cancel context.CancelFunc
}

func NewPassphraseAuthenticator(db *sql.DB, prompt PromptFunc) *PassphraseAuthenticator {
	return &PassphraseAuthenticator{db: db, prompt: prompt}
}

func (a *PassphraseAuthenticator) settings(db dbx.DBTX) metadata.Repository {
	return metadata.NewSQLiteRepository(db)
}

func (a *PassphraseAuthenticator) HasHardware(context.Context) bool {
	return isTerminal(int(os.Stdin.Fd()))
}

func (a *PassphraseAuthenticator) IsEnrolled(ctx context.Context) bool {
	_, verifier, err := a.load(ctx)
	return err == nil && len(verifier) > 0
}

func (a *PassphraseAuthenticator) load(ctx context.Context) (salt, verifier []byte, err error) {
	repo := a.settings(a.db)
	if salt, err = repo.Get(ctx, keyAuthSalt); err != nil {
		return nil, nil, err
	}
	if verifier, err = repo.Get(ctx, keyAuthVerifier); err != nil {
		return nil, nil, err
	}
	if len(salt) == 0 || len(verifier) == 0 {
		return nil, nil, ErrNotEnrolled
	}
	return salt, verifier, nil
}

// Enroll sets or replaces the unlock passphrase.
func (a *PassphraseAuthenticator) Enroll(ctx context.Context, passphrase []byte) error {
	if len(passphrase) < minPassphraseLen {
		return ErrPassphraseTooShort
	}
	salt := common.GenerateRandByteArray(saltSize)
	key := cryptox.DeriveKey(passphrase, salt)
	defer common.WipeByteArray(key)
	verifier := cryptox.MakeVerifier(key)

	return dbx.WithTx(ctx, a.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := a.settings(tx)
		if err := repo.Set(ctx, keyAuthSalt, salt); err != nil {
			return err
		}
		return repo.Set(ctx, keyAuthVerifier, verifier)
	})
}

func (a *PassphraseAuthenticator) Unenroll(ctx context.Context) error {
	return dbx.WithTx(ctx, a.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := a.settings(tx)
		if err := repo.Delete(ctx, keyAuthSalt); err != nil {
			return err
		}
		return repo.Delete(ctx, keyAuthVerifier)
	})
}

type promptResult struct {
	pw  []byte
	err error
}

// Authenticate prompts once. It returns nil on a match, ErrAuthFailed on a
// mismatch and ErrAuthCancelled when the prompt is abandoned, the input is
// empty, Cancel is called or ctx ends. An abandoned prompt may still be
// blocked reading input.
func (a *PassphraseAuthenticator) Authenticate(ctx context.Context) error {
	salt, verifier, err := a.load(ctx)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	a.mu.Lock()
	a.cancel = cancel
	a.mu.Unlock()
	defer func() {
		a.mu.Lock()
		a.cancel = nil
		a.mu.Unlock()
		cancel()
	}()

	ch := make(chan promptResult, 1)
	go func() {
		pw, err := a.prompt(ctx)
		ch <- promptResult{pw: pw, err: err}
	}()

	var r promptResult
	select {
	case <-ctx.Done():
		return ErrAuthCancelled
	case r = <-ch:
	}
	defer common.WipeByteArray(r.pw)

	if r.err != nil {
		if errors.Is(r.err, ErrAuthCancelled) || errors.Is(r.err, io.EOF) || ctx.Err() != nil {
			return ErrAuthCancelled
		}
		return fmt.Errorf("%w: %v", ErrAuthFailed, r.err)
	}
	if len(r.pw) == 0 {
		return ErrAuthCancelled
	}

	key := cryptox.DeriveKey(r.pw, salt)
	defer common.WipeByteArray(key)
	if subtle.ConstantTimeCompare(cryptox.MakeVerifier(key), verifier) != 1 {
		return ErrAuthFailed
	}
	return nil
}

// Cancel abandons an Authenticate call in progress, if any.
func (a *PassphraseAuthenticator) Cancel() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.cancel != nil {
		a.cancel()
	}
}
