package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wonny/aegis/v13/optimizer/internal/portfolio"
)

// permuteCmd represents the permute command
var permuteCmd = &cobra.Command{
	Use:   "permute",
	Short: "무작위 배분 샘플링",
	Long: `종목 집합에 대해 합계가 total인 무작위 배분을 생성합니다.
초기 모집단과 동일한 생성기를 사용합니다.

Example:
  go run ./cmd/evolve permute --codes A,B,C --total 20 --count 5
  go run ./cmd/evolve permute --codes SPY,TLT --total 100 --count 3 --seed 42`,
	RunE: runPermute,
}

var (
	permuteCodes []string
	permuteTotal float64
	permuteCount int
	permuteSeed  int64
)

func init() {
	rootCmd.AddCommand(permuteCmd)

	permuteCmd.Flags().StringSliceVar(&permuteCodes, "codes", nil, "종목 코드 (쉼표 구분)")
	permuteCmd.Flags().Float64Var(&permuteTotal, "total", 100, "배분 합계")
	permuteCmd.Flags().IntVar(&permuteCount, "count", 5, "샘플 수")
	permuteCmd.Flags().Int64Var(&permuteSeed, "seed", 0, "난수 시드 (0 = 시간 기반)")
	permuteCmd.MarkFlagRequired("codes")
}

func runPermute(cmd *cobra.Command, args []string) error {
	if permuteCount <= 0 {
		return fmt.Errorf("count must be > 0")
	}

	template := portfolio.New()
	for _, code := range permuteCodes {
		code = portfolio.NormalizeCode(code)
		if code == "" || template.Has(code) {
			return fmt.Errorf("codes must be non-empty and unique: %s", strings.Join(permuteCodes, ","))
		}
		template.Set(code, 0)
	}

	permuter, err := portfolio.NewPermuter(template, permuteTotal, portfolio.NewRand(permuteSeed))
	if err != nil {
		return err
	}

	codes := template.Codes()
	widths := make([]int, len(codes)+2)
	columns := make([]string, len(codes)+2)
	columns[0], widths[0] = "#", 4
	for i, code := range codes {
		columns[i+1], widths[i+1] = code, 10
	}
	columns[len(columns)-1], widths[len(widths)-1] = "TOTAL", 10

	fmt.Println()
	PrintTableHeader(columns, widths)
	for n := 1; n <= permuteCount; n++ {
		p, err := permuter.Next()
		if err != nil {
			return err
		}

		row := make([]string, 0, len(columns))
		row = append(row, fmt.Sprintf("%d", n))
		for _, code := range codes {
			row = append(row, fmt.Sprintf("%.4f", p.Get(code)))
		}
		row = append(row, fmt.Sprintf("%.4f", p.Total()))
		PrintTableRow(row, widths)
	}

	return nil
}
