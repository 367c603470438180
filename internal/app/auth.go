package app

import (
	"bufio"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/crypto/argon2"
)

// Feed key storage. The feed URL carries a single shared secret
// (?key=...); only its Argon2id hash is kept on disk.
const (
	DefaultAuthFile = "feed_key.secret"
)

// Argon2id parameters (OWASP recommended)
const (
	argon2Time    = 1
	argon2Memory  = 64 * 1024 // 64 MB
	argon2Threads = 4
	argon2KeyLen  = 32
	saltLen       = 16
)

// AuthFilePath returns the feed-key file location: the AUTH_FILE
// environment variable, or feed_key.secret next to the binary.
func AuthFilePath() (string, error) {
	if path := os.Getenv("AUTH_FILE"); path != "" {
		return path, nil
	}
	execPath, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("failed to get executable path: %w", err)
	}
	return filepath.Join(filepath.Dir(execPath), DefaultAuthFile), nil
}

// LoadFeedKeyHash reads the stored key hash. A missing file is not an
// error: it returns "" and the feed is served without a key check, which is
// meant for local development only.
func LoadFeedKeyHash() (string, error) {
	path, err := AuthFilePath()
	if err != nil {
		return "", err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("failed to read auth file: %w", err)
	}

	hash := strings.TrimSpace(string(data))
	if hash == "" {
		return "", fmt.Errorf("auth file %s is empty", path)
	}
	return hash, nil
}

// HashKey creates an Argon2id hash of the feed key
func HashKey(key string) (string, error) {
	// Generate random salt
	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}

	hash := argon2.IDKey([]byte(key), salt, argon2Time, argon2Memory, argon2Threads, argon2KeyLen)

	// Encode as: $argon2id$v=19$m=65536,t=1,p=4$salt$hash
	b64Salt := base64.RawStdEncoding.EncodeToString(salt)
	b64Hash := base64.RawStdEncoding.EncodeToString(hash)

	return fmt.Sprintf("$argon2id$v=19$m=%d,t=%d,p=%d$%s$%s",
		argon2Memory, argon2Time, argon2Threads, b64Salt, b64Hash), nil
}

// VerifyKey verifies a feed key against an Argon2id hash
func VerifyKey(key, hash string) (bool, error) {
	// Parse hash format: $argon2id$v=19$m=65536,t=1,p=4$salt$hash
	parts := strings.Split(hash, "$")
	if len(parts) != 6 {
		return false, fmt.Errorf("invalid hash format")
	}

	if parts[1] != "argon2id" {
		return false, fmt.Errorf("not an argon2id hash")
	}

	// Parse parameters
	var memory, time, threads uint32
	_, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &time, &threads)
	if err != nil {
		return false, fmt.Errorf("failed to parse hash parameters: %w", err)
	}

	// Decode salt and hash
	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false, fmt.Errorf("failed to decode salt: %w", err)
	}

	decodedHash, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return false, fmt.Errorf("failed to decode hash: %w", err)
	}

	// Hash the provided key with same parameters
	computedHash := argon2.IDKey([]byte(key), salt, time, memory, uint8(threads), uint32(len(decodedHash)))

	// Compare using constant-time comparison
	return subtle.ConstantTimeCompare(decodedHash, computedHash) == 1, nil
}

// checkKey reports whether the request's key query parameter is acceptable.
// With no hash configured the feed is open.
func (s *Server) checkKey(key string) bool {
	if s.cfg.KeyHash == "" {
		return true
	}
	ok, err := VerifyKey(key, s.cfg.KeyHash)
	if err != nil {
		s.logger.WithError(err).Error("feed key verification failed")
		return false
	}
	return ok
}

// CreateKeyFile hashes the feed key and writes it to the auth file
func CreateKeyFile(key string, overwrite bool) error {
	authFile, err := AuthFilePath()
	if err != nil {
		return err
	}

	// Check if file exists
	if _, err := os.Stat(authFile); err == nil {
		if !overwrite {
			fmt.Printf("Auth file already exists: %s\n", authFile)
			fmt.Print("Overwrite? (y/N): ")
			reader := bufio.NewReader(os.Stdin)
			response, _ := reader.ReadString('\n')
			response = strings.TrimSpace(strings.ToLower(response))
			if response != "y" && response != "yes" {
				return fmt.Errorf("aborted")
			}
		}
		// Delete existing file (necessary because we use 0400 read-only)
		if err := os.Remove(authFile); err != nil {
			return fmt.Errorf("failed to remove existing auth file: %w", err)
		}
	}

	hash, err := HashKey(key)
	if err != nil {
		return fmt.Errorf("failed to hash key: %w", err)
	}

	// 0400 = read-only
	if err := os.WriteFile(authFile, []byte(hash+"\n"), 0400); err != nil {
		return fmt.Errorf("failed to write auth file: %w", err)
	}

	fmt.Printf("✅ Auth file created: %s (mode: 0400 read-only)\n", authFile)
	return nil
}
