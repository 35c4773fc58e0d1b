// Command vybium-digest exposes the library's hashing and commitment
// primitives on the command line: Rescue-Prime digests of field element
// sequences or raw bytes, Merkle roots over line-delimited input, and a
// twiddle-table warmer for the persistent NTT cache.
package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/vybium/vybium-crypto/internal/vybium-crypto/logging"
	"github.com/vybium/vybium-crypto/internal/vybium-crypto/mathutil"
	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/field"
	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/hash"
	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/merkle"
	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/ntt"
	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/tablestore"
)

const (
	optionNameVerbosity = "verbosity"
	optionNameEmoji     = "emoji"
	optionNameDataDir   = "data-dir"
	optionNameMaxLog2   = "max-log2"
)

func main() {
	root := &cobra.Command{
		Use:           "vybium-digest",
		Short:         "Rescue-Prime digests and Merkle commitments over the Vybium base field",
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	root.PersistentFlags().String(optionNameVerbosity, "info", "log verbosity level 0=silent, 1=error, 2=warn, 3=info, 4=debug, 5=trace")

	root.AddCommand(newHashCmd())
	root.AddCommand(newRootCmd())
	root.AddCommand(newWarmCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newLogger(cmd *cobra.Command) (logging.Logger, error) {
	verbosity, err := cmd.Flags().GetString(optionNameVerbosity)
	if err != nil {
		return nil, err
	}
	switch verbosity {
	case "0", "silent":
		return logging.New(io.Discard, 0), nil
	case "1", "error":
		return logging.New(cmd.ErrOrStderr(), logrus.ErrorLevel), nil
	case "2", "warn":
		return logging.New(cmd.ErrOrStderr(), logrus.WarnLevel), nil
	case "3", "info":
		return logging.New(cmd.ErrOrStderr(), logrus.InfoLevel), nil
	case "4", "debug":
		return logging.New(cmd.ErrOrStderr(), logrus.DebugLevel), nil
	case "5", "trace":
		return logging.New(cmd.ErrOrStderr(), logrus.TraceLevel), nil
	default:
		return nil, fmt.Errorf("unknown verbosity level %q", verbosity)
	}
}

func newHashCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hash [element...]",
		Short: "Hash decimal field elements given as arguments, or raw bytes from stdin",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := newLogger(cmd)
			if err != nil {
				return err
			}

			var input []field.Element
			if len(args) > 0 {
				input = make([]field.Element, len(args))
				for i, arg := range args {
					value, err := strconv.ParseUint(arg, 10, 64)
					if err != nil {
						return fmt.Errorf("argument %q is not a field element: %w", arg, err)
					}
					input[i] = field.New(value)
				}
			} else {
				data, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return err
				}
				input = elementsFromBytes(data)
				logger.Debugf("read %d bytes from stdin, %d field elements", len(data), len(input))
			}

			digest := hash.HashVarlen(input)
			return printDigest(cmd, digest)
		},
	}
	cmd.Flags().Bool(optionNameEmoji, false, "render the digest as emoji as well")
	return cmd
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "root",
		Short: "Merkle root over the lines read from stdin, one leaf per line",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := newLogger(cmd)
			if err != nil {
				return err
			}

			var leaves []hash.Digest
			scanner := bufio.NewScanner(cmd.InOrStdin())
			for scanner.Scan() {
				leaves = append(leaves, hash.HashVarlen(elementsFromBytes(scanner.Bytes())))
			}
			if err := scanner.Err(); err != nil {
				return err
			}
			if len(leaves) == 0 {
				return fmt.Errorf("no input lines")
			}

			// the tree wants a power of two; fill with the empty leaf
			padded := mathutil.NextPowerOfTwo(len(leaves))
			if padded != len(leaves) {
				logger.Debugf("padding %d leaves to %d", len(leaves), padded)
				empty := hash.HashVarlen(nil)
				for len(leaves) < padded {
					leaves = append(leaves, empty)
				}
			}

			logger.Infof("committing to %d leaves", len(leaves))
			root, err := merkle.Commit(leaves, hash.Hasher{})
			if err != nil {
				return err
			}
			return printDigest(cmd, root)
		},
	}
	cmd.Flags().Bool(optionNameEmoji, false, "render the digest as emoji as well")
	return cmd
}

func newWarmCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "warm",
		Short: "Precompute NTT twiddle tables into the persistent cache",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := newLogger(cmd)
			if err != nil {
				return err
			}
			dataDir, err := cmd.Flags().GetString(optionNameDataDir)
			if err != nil {
				return err
			}
			maxLog2, err := cmd.Flags().GetInt(optionNameMaxLog2)
			if err != nil {
				return err
			}
			if maxLog2 < 1 || maxLog2 > 32 {
				return fmt.Errorf("max-log2 must be between 1 and 32, got %d", maxLog2)
			}

			store, err := tablestore.NewStore(dataDir, logger)
			if err != nil {
				return err
			}
			defer store.Close()

			cache := tablestore.NewDomainCache(store)
			for log2 := 1; log2 <= maxLog2; log2++ {
				n := uint64(1) << log2
				if _, err := ntt.NewDomainWithStore(n, cache); err != nil {
					return fmt.Errorf("domain of size %d: %w", n, err)
				}
				logger.Debugf("twiddle table for size %d ready", n)
			}
			logger.Infof("twiddle tables up to size %d cached in %s", uint64(1)<<maxLog2, dataDir)
			return nil
		},
	}
	cmd.Flags().String(optionNameDataDir, "vybium-tables", "directory for the twiddle table database")
	cmd.Flags().Int(optionNameMaxLog2, 16, "largest domain size to precompute, as a power of two exponent")
	return cmd
}

// elementsFromBytes packs bytes into field elements eight at a time,
// little endian, the final partial chunk zero padded. The sponge's own
// padding keeps distinct byte lengths distinct.
func elementsFromBytes(data []byte) []field.Element {
	elements := make([]field.Element, 0, (len(data)+7)/8)
	for len(data) >= 8 {
		elements = append(elements, field.FromBytes(data[:8]))
		data = data[8:]
	}
	if len(data) > 0 {
		var tail [8]byte
		copy(tail[:], data)
		elements = append(elements, field.FromBytes(tail[:]))
	}
	return elements
}

func printDigest(cmd *cobra.Command, d hash.Digest) error {
	fmt.Fprintln(cmd.OutOrStdout(), d.String())
	if emoji, err := cmd.Flags().GetBool(optionNameEmoji); err == nil && emoji {
		fmt.Fprintln(cmd.OutOrStdout(), emojiDigest(d))
	}
	return nil
}

// emojiAlphabet has 32 visually distinct symbols, so every byte maps to
// one symbol by its low five bits.
var emojiAlphabet = []string{
	"🦀", "🐙", "🦑", "🐋", "🐢", "🦎", "🐸", "🦜",
	"🦉", "🦇", "🐝", "🦋", "🐌", "🐞", "🦂", "🕷",
	"🌵", "🍄", "🌻", "🌙", "⭐", "🔥", "❄", "⚡",
	"🌊", "🍀", "🍎", "🍋", "🥝", "🍇", "🥥", "🌶",
}

// emojiDigest renders the first eight digest bytes as emoji, a short
// fingerprint for eyeballing digests rather than a faithful encoding.
func emojiDigest(d hash.Digest) string {
	bytes := d.Bytes()
	var sb strings.Builder
	for _, b := range bytes[:8] {
		sb.WriteString(emojiAlphabet[b%32])
	}
	return sb.String()
}
