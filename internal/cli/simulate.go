package cli

import (
	"errors"

	"github.com/spf13/cobra"
)

var (
	simulateMileage int
	simulateSeats   int
)

var simulateCmd = &cobra.Command{
	Use:   "simulate-alert",
	Short: "模拟一条合格舱位并触发告警",
	RunE: func(cmd *cobra.Command, args []string) error {
		if simulateMileage <= 0 || simulateSeats <= 0 {
			return errors.New("--mileage 与 --seats 必须大于 0")
		}

		return getApp().SimulateAlert(cmd.Context(), simulateMileage, simulateSeats)
	},
}

func init() {
	simulateCmd.Flags().IntVar(&simulateMileage, "mileage", 60000, "模拟的里程成本")
	simulateCmd.Flags().IntVar(&simulateSeats, "seats", 2, "模拟的剩余座位数")
}
