// Package cli implements folioctl, the operator and client tool for the
// registry.
package cli

import (
	"bytes"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"folio/internal/registry/address"
	"folio/internal/registry/auth"
	"folio/internal/registry/handler"
	"folio/pkg/domain"
)

type options struct {
	program  string
	audience string
	keyPath  string
	server   string
}

// RootCommand builds the folioctl command tree.
func RootCommand() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:           "folioctl",
		Short:         "Keys, addresses and signed requests for the folio registry",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.program, "program", "", "base58 program id (default program when empty)")
	root.PersistentFlags().StringVar(&opts.audience, "audience", "folio", "proof audience expected by the server")
	root.PersistentFlags().StringVarP(&opts.keyPath, "key", "k", "", "path to a hex ed25519 seed file")
	root.PersistentFlags().StringVar(&opts.server, "server", "http://localhost:8080", "registry base URL")

	root.AddCommand(
		keygenCommand(),
		identityCommand(opts),
		hashCommand(),
		deriveCommand(opts),
		proofCommand(opts),
		publishCommand(opts),
		registerIssuerCommand(opts),
		issueCommand(opts),
	)
	return root
}

func keygenCommand() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "generate an ed25519 identity",
		RunE: func(cmd *cobra.Command, _ []string) error {
			seed := make([]byte, ed25519.SeedSize)
			if _, err := rand.Read(seed); err != nil {
				return err
			}
			key := ed25519.NewKeyFromSeed(seed)
			encoded := hex.EncodeToString(seed) + "\n"
			if out == "" {
				fmt.Fprint(cmd.OutOrStdout(), encoded)
			} else if err := os.WriteFile(out, []byte(encoded), 0o600); err != nil {
				return err
			}
			fmt.Fprintln(cmd.ErrOrStderr(), "identity:", auth.IdentityOf(key))
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "write the seed to this file instead of stdout")
	return cmd
}

func identityCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "identity",
		Short: "print the identity of --key",
		RunE: func(cmd *cobra.Command, _ []string) error {
			key, err := loadKey(opts.keyPath)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), auth.IdentityOf(key))
			return nil
		},
	}
}

func hashCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "hash [file]",
		Short: "print the sha256 of a portfolio document as hex and CID",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd, args)
			if err != nil {
				return err
			}
			d := domain.DigestOf(data)
			fmt.Fprintf(cmd.OutOrStdout(), "hex %s\ncid %s\n", d, d.CID())
			return nil
		},
	}
}

func deriveCommand(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "derive",
		Short: "compute record addresses offline",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "portfolio <authority> <version>",
			Short: "portfolio address for (authority, version)",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				d, err := opts.deriver()
				if err != nil {
					return err
				}
				authority, err := domain.ParseIdentity(args[0])
				if err != nil {
					return err
				}
				version, err := strconv.ParseUint(args[1], 10, 64)
				if err != nil {
					return fmt.Errorf("version: %w", err)
				}
				addr, bump, err := d.Portfolio(authority, version)
				return printAddress(cmd, addr, bump, err)
			},
		},
		&cobra.Command{
			Use:   "issuer <authority>",
			Short: "issuer address for authority",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				d, err := opts.deriver()
				if err != nil {
					return err
				}
				authority, err := domain.ParseIdentity(args[0])
				if err != nil {
					return err
				}
				addr, bump, err := d.Issuer(authority)
				return printAddress(cmd, addr, bump, err)
			},
		},
		&cobra.Command{
			Use:   "credential <issuer> <student> <reference>",
			Short: "credential address for (issuer, student, reference)",
			Args:  cobra.ExactArgs(3),
			RunE: func(cmd *cobra.Command, args []string) error {
				d, err := opts.deriver()
				if err != nil {
					return err
				}
				issuer, err := domain.ParseAddress(args[0])
				if err != nil {
					return err
				}
				student, err := domain.ParseIdentity(args[1])
				if err != nil {
					return err
				}
				reference, err := domain.ParseDigest(args[2])
				if err != nil {
					return err
				}
				addr, bump, err := d.Credential(issuer, student, reference)
				return printAddress(cmd, addr, bump, err)
			},
		},
	)
	return cmd
}

func proofCommand(opts *options) *cobra.Command {
	var op string
	cmd := &cobra.Command{
		Use:   "proof [body-file]",
		Short: "sign a request body for --op and print the bearer token",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := loadKey(opts.keyPath)
			if err != nil {
				return err
			}
			body, err := readInput(cmd, args)
			if err != nil {
				return err
			}
			token, err := auth.NewProofService(opts.audience).Sign(key, auth.Operation(op), body)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&op, "op", "", "publish_portfolio, register_issuer or issue_credential")
	_ = cmd.MarkFlagRequired("op")
	return cmd
}

func publishCommand(opts *options) *cobra.Command {
	var version uint64
	cmd := &cobra.Command{
		Use:   "publish <document>",
		Short: "hash a portfolio document and publish it under --key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			req := handler.PublishPortfolioRequest{Version: version, Hash: domain.DigestOf(data).String()}
			return opts.send(cmd, "/v1/portfolios", auth.OpPublishPortfolio, req)
		},
	}
	cmd.Flags().Uint64Var(&version, "version", 1, "portfolio version")
	return cmd
}

func registerIssuerCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "register-issuer <name>",
		Short: "register --key as an issuer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.send(cmd, "/v1/issuers", auth.OpRegisterIssuer, handler.RegisterIssuerRequest{Name: args[0]})
		},
	}
}

func issueCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "issue <issuer> <student> <reference>",
		Short: "issue a credential under the issuer --key controls",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := handler.IssueCredentialRequest{Issuer: args[0], Student: args[1], Reference: args[2]}
			return opts.send(cmd, "/v1/credentials", auth.OpIssueCredential, req)
		},
	}
}

func (o *options) deriver() (*address.Deriver, error) {
	var program domain.Address
	if o.program != "" {
		p, err := domain.ParseAddress(o.program)
		if err != nil {
			return nil, fmt.Errorf("--program: %w", err)
		}
		program = p
	}
	return address.NewDeriver(program), nil
}

// send signs body for op and POSTs it, printing the server's response.
func (o *options) send(cmd *cobra.Command, path string, op auth.Operation, body any) error {
	key, err := loadKey(o.keyPath)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(body)
	if err != nil {
		return err
	}
	token, err := auth.NewProofService(o.audience).Sign(key, op, raw)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(cmd.Context(), http.MethodPost, strings.TrimRight(o.server, "/")+path, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	out, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), string(out))
	if resp.StatusCode >= 300 {
		return fmt.Errorf("server returned %s", resp.Status)
	}
	return nil
}

func printAddress(cmd *cobra.Command, addr domain.Address, bump uint8, err error) error {
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s %d\n", addr, bump)
	return nil
}

func loadKey(path string) (ed25519.PrivateKey, error) {
	if path == "" {
		return nil, errors.New("--key is required")
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	seed, err := hex.DecodeString(strings.TrimSpace(string(raw)))
	if err != nil || len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("%s: expected %d hex-encoded seed bytes", path, ed25519.SeedSize)
	}
	return ed25519.NewKeyFromSeed(seed), nil
}

func readInput(cmd *cobra.Command, args []string) ([]byte, error) {
	if len(args) == 0 || args[0] == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	return os.ReadFile(args[0])
}
