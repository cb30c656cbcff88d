package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/aegis/v13/optimizer/internal/runconfig"
)

// validateCmd represents the validate command
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "실행 파일 검증",
	Long: `실행 파일을 엄격 모드(알 수 없는 필드 거부)로 읽고 검증합니다.
성공하면 재현성 확인용 설정 해시를 출력합니다.

Example:
  go run ./cmd/evolve validate --config configs/example.yaml`,
	RunE: runValidate,
}

var validateConfigPath string

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringVarP(&validateConfigPath, "config", "c", "", "실행 파일 경로 (YAML)")
	validateCmd.MarkFlagRequired("config")
}

func runValidate(cmd *cobra.Command, args []string) error {
	appCfg, _, err := setup()
	if err != nil {
		return err
	}

	cfg, data, err := runconfig.LoadOnto(validateConfigPath, runconfig.WithEnv(appCfg.Evolution))
	if err != nil {
		PrintError(err.Error())
		return err
	}

	hash, err := runconfig.Hash(cfg)
	if err != nil {
		return fmt.Errorf("hash config: %w", err)
	}

	source := "synthetic"
	if cfg.Evaluation.ReturnsFile != "" {
		source = cfg.Evaluation.ReturnsFile
	}

	PrintKeyValue("File", fmt.Sprintf("%s (%d bytes)", validateConfigPath, len(data)), 12)
	PrintKeyValue("Run", cfg.Meta.RunID, 12)
	PrintKeyValue("Assets", fmt.Sprintf("%d", len(cfg.Universe.Assets)), 12)
	PrintKeyValue("Returns", source, 12)
	PrintKeyValue("Objective", cfg.Evaluation.Objective, 12)
	PrintKeyValue("Hash", hash, 12)
	PrintSuccess("Config is valid")

	return nil
}
