package commands

import (
	"bufio"
	"crypto/rand"
	"encoding/base64"
	"flag"
	"fmt"
	"os"
	"syscall"

	"github.com/klabast/ts-subscribe/internal/app"
	"golang.org/x/term"
)

// HashKey handles the hash-key subcommand: it provisions the shared feed
// key by writing its Argon2id hash to the auth file.
func HashKey(args []string) {
	fs := flag.NewFlagSet("hash-key", flag.ExitOnError)
	overwrite := fs.Bool("overwrite", false, "Overwrite existing auth file without asking")
	generate := fs.Bool("generate", false, "Generate a random feed key and print it once")
	insecureUnmask := fs.Bool("insecure-unmask-key", false, "Show key as plain text (INSECURE!)")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: ts-subscribe hash-key [OPTIONS]\n\n")
		fmt.Fprintf(os.Stderr, "Creates a feed_key.secret file with the hashed feed key (Argon2id).\n")
		fmt.Fprintf(os.Stderr, "Feed requests must then carry the key as ?key=... .\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		fmt.Fprintf(os.Stderr, "  AUTH_FILE    Path to auth file (default: ./feed_key.secret)\n")
	}
	fs.Parse(args)

	var key string

	if *generate {
		var err error
		key, err = randomKey()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error generating key: %v\n", err)
			os.Exit(1)
		}
	} else if *insecureUnmask {
		// Plain text mode (insecure!)
		fmt.Fprintf(os.Stderr, "⚠️  WARNING: Key will be visible on screen!\n")
		var keyConfirm string
		fmt.Print("Enter feed key:   ")
		if _, err := fmt.Scanln(&key); err != nil {
			fmt.Fprintf(os.Stderr, "Error reading key: %v\n", err)
			os.Exit(1)
		}
		fmt.Print("Confirm feed key: ")
		if _, err := fmt.Scanln(&keyConfirm); err != nil {
			fmt.Fprintf(os.Stderr, "Error reading key confirmation: %v\n", err)
			os.Exit(1)
		}
		if key != keyConfirm {
			fmt.Fprintf(os.Stderr, "Keys do not match\n")
			os.Exit(1)
		}
	} else {
		// Masked mode with asterisks (default, secure)
		key = readKeyWithMask("Enter feed key:   ")
		keyConfirm := readKeyWithMask("Confirm feed key: ")
		if key != keyConfirm {
			fmt.Fprintf(os.Stderr, "Keys do not match\n")
			os.Exit(1)
		}
	}

	if key == "" {
		fmt.Fprintf(os.Stderr, "Feed key cannot be empty\n")
		os.Exit(1)
	}

	if err := app.CreateKeyFile(key, *overwrite); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if *generate {
		fmt.Printf("   Feed key (save it now, it is not stored): %s\n", key)
	}
}

// randomKey returns a URL-safe random key suitable for a feed query param.
func randomKey() (string, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}

// readKeyWithMask reads key input and displays asterisks
func readKeyWithMask(prompt string) string {
	fmt.Print(prompt)

	// Save original terminal state
	oldState, err := term.GetState(int(syscall.Stdin))
	if err != nil {
		// Fallback to hidden input if we can't set raw mode
		key, _ := term.ReadPassword(int(syscall.Stdin))
		fmt.Println()
		return string(key)
	}
	defer term.Restore(int(syscall.Stdin), oldState)

	// Set terminal to raw mode
	if _, err := term.MakeRaw(int(syscall.Stdin)); err != nil {
		// Fallback to hidden input
		key, _ := term.ReadPassword(int(syscall.Stdin))
		fmt.Println()
		return string(key)
	}

	var key []byte
	reader := bufio.NewReader(os.Stdin)

	for {
		char, _, err := reader.ReadRune()
		if err != nil {
			break
		}

		switch char {
		case '\n', '\r': // Enter key
			fmt.Println()
			return string(key)
		case 127, 8: // Backspace or Delete
			if len(key) > 0 {
				key = key[:len(key)-1]
				// Clear the asterisk: backspace, space, backspace
				fmt.Print("\b \b")
			}
		case 3: // Ctrl+C
			fmt.Println()
			os.Exit(1)
		default:
			// Only accept printable characters
			if char >= 32 && char <= 126 {
				key = append(key, byte(char))
				fmt.Print("*")
			}
		}
	}

	fmt.Println()
	return string(key)
}
