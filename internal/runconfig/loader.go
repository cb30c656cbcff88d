package runconfig

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Load reads a YAML run file and returns Config with raw bytes.
// A relative returns_file is resolved against the run file's directory.
func Load(path string) (*Config, []byte, error) {
	return LoadOnto(path, Default())
}

// LoadOnto is Load with an explicit baseline (e.g. WithEnv)
func LoadOnto(path string, base *Config) (*Config, []byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}

	cfg, err := ParseOnto(data, base)
	if err != nil {
		return nil, data, err
	}

	if f := cfg.Evaluation.ReturnsFile; f != "" && !filepath.IsAbs(f) {
		cfg.Evaluation.ReturnsFile = filepath.Join(filepath.Dir(path), f)
	}

	return cfg, data, nil
}

// Parse decodes YAML onto Default() and validates it
func Parse(data []byte) (*Config, error) {
	return ParseOnto(data, Default())
}

// ParseOnto decodes YAML onto a copy of base and validates it
// SSOT 핵심: KnownFields(true)로 오타/미사용 필드 즉시 실패
func ParseOnto(data []byte, base *Config) (*Config, error) {
	cfg := base.clone()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true) // 알 수 없는 필드 발견 시 에러 반환
	if err := dec.Decode(cfg); err != nil {
		return nil, err
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Hash generates SHA256 hash from Config (canonical JSON)
// 주의: map 대신 struct 사용으로 해시 재현성 보장
func Hash(cfg *Config) (string, error) {
	jsonBytes, err := json.Marshal(cfg)
	if err != nil {
		return "", err
	}

	sum := sha256.Sum256(jsonBytes)
	return hex.EncodeToString(sum[:]), nil
}
