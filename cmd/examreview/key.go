package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/go-scripts/examreview/internal/vault"
)

// KeyCmd manages the stored secret
type KeyCmd struct {
	Set    KeySetCmd    `cmd:"" help:"Encrypt and store an API key"`
	Status KeyStatusCmd `cmd:"" help:"Show whether a usable API key is stored"`
	Forget KeyForgetCmd `cmd:"" help:"Remove the stored API key"`
}

type KeySetCmd struct {
	Secret string `arg:"" optional:"" help:"API key; read from stdin when omitted"`
}

func (c *KeySetCmd) Run(g *Globals) error {
	a, err := g.setup()
	if err != nil {
		return err
	}
	v, err := a.vault()
	if err != nil {
		return err
	}

	secret := c.Secret
	if secret == "" {
		if secret, err = promptSecret(os.Stdin, os.Stderr); err != nil {
			return err
		}
	}
	if err := v.SaveSecret(secret); err != nil {
		if errors.Is(err, vault.ErrCorruptKey) {
			return fmt.Errorf("%w; run `examreview key forget --reset-key` and try again", err)
		}
		return err
	}

	fmt.Printf("Stored API key %s\n", mask(secret))
	return nil
}

type KeyStatusCmd struct{}

func (c *KeyStatusCmd) Run(g *Globals) error {
	a, err := g.setup()
	if err != nil {
		return err
	}
	v, err := a.vault()
	if err != nil {
		return err
	}

	secret, err := v.StoredSecret()
	switch {
	case err == nil:
		fmt.Printf("API key %s stored in %s\n", mask(secret), a.cfg.VaultPath)
	case errors.Is(err, vault.ErrCorruptKey):
		fmt.Println("Stored key material is corrupt; run `examreview key forget --reset-key`")
	case errors.Is(err, vault.ErrDecrypt):
		fmt.Println("Stored API key cannot be decrypted; run `examreview key set` again")
	case errors.Is(err, vault.ErrNoCredential):
		fmt.Println("No API key stored")
	default:
		return err
	}
	return nil
}

type KeyForgetCmd struct {
	ResetKey bool `help:"Also discard the key material; a new key is generated on the next key set" name:"reset-key"`
}

func (c *KeyForgetCmd) Run(g *Globals) error {
	a, err := g.setup()
	if err != nil {
		return err
	}
	v, err := a.vault()
	if err != nil {
		return err
	}
	if c.ResetKey {
		if err := v.ResetKey(); err != nil {
			return err
		}
		fmt.Println("API key and key material removed")
		return nil
	}
	if err := v.Forget(); err != nil {
		return err
	}

	fmt.Println("API key removed")
	return nil
}
