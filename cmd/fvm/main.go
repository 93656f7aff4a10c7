// Command fvm executes scripts against an in-memory or LevelDB-backed state
// and prints the resulting receipts, and disassembles bytecode.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/colorfulnotion/fvm/asm"
	"github.com/colorfulnotion/fvm/log"
	"github.com/colorfulnotion/fvm/storage"
	"github.com/colorfulnotion/fvm/tx"
	"github.com/colorfulnotion/fvm/types"
	"github.com/colorfulnotion/fvm/vm"
)

var (
	flagDB       string
	flagGasLimit uint64
	flagVerbose  bool
)

func main() {
	root := &cobra.Command{
		Use:           "fvm",
		Short:         "deterministic register-machine VM",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if flagVerbose {
				log.SetVerbosity(log.LevelDebug)
			}
		},
	}
	root.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "debug logging")

	runCmd := &cobra.Command{
		Use:   "run <script.bin>",
		Short: "execute a script and print its receipts",
		Args:  cobra.ExactArgs(1),
		RunE:  runScript,
	}
	runCmd.Flags().StringVar(&flagDB, "db", "", "LevelDB path (default: in-memory state)")
	runCmd.Flags().Uint64Var(&flagGasLimit, "gas-limit", 1_000_000, "transaction gas limit")

	disasmCmd := &cobra.Command{
		Use:   "disasm <code.bin>",
		Short: "disassemble bytecode",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			code, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			fmt.Print(asm.Disassemble(code))
			return nil
		},
	}

	root.AddCommand(runCmd, disasmCmd)
	if err := root.Execute(); err != nil {
		log.Error("fvm failed", "err", err)
		os.Exit(1)
	}
}

func runScript(cmd *cobra.Command, args []string) error {
	script, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}

	var store storage.Store
	if flagDB != "" {
		level, err := storage.NewLevelStore(flagDB)
		if err != nil {
			return err
		}
		defer level.Close()
		store = level
	} else {
		store = storage.NewMemoryStore()
	}

	params := types.DefaultParams()
	transaction := tx.Script(script, nil, flagGasLimit)
	checked, err := tx.Check(transaction, params, 0)
	if err != nil {
		return err
	}

	transactor := vm.NewTransactor(store, params, nil)
	st, err := transactor.Transact(checked)
	if err != nil {
		return err
	}

	fmt.Printf("state:    %s\n", st.State)
	fmt.Printf("gas used: %d\n", st.GasUsed)
	fmt.Printf("root:     %s\n", st.Root.Hex())
	for i, r := range st.Receipts {
		printReceipt(i, r)
	}
	return nil
}

func printReceipt(i int, r types.Receipt) {
	switch r.Type {
	case types.ReceiptCall:
		fmt.Printf("%3d %-12s to=%s amount=%d gas=%d\n", i, r.Type, r.To.Hex(), r.Amount, r.Gas)
	case types.ReceiptReturn:
		fmt.Printf("%3d %-12s val=%d\n", i, r.Type, r.Val)
	case types.ReceiptReturnData, types.ReceiptLogData:
		fmt.Printf("%3d %-12s ptr=%d len=%d digest=%s\n", i, r.Type, r.Ptr, r.Len, r.Digest.Hex())
	case types.ReceiptPanic:
		fmt.Printf("%3d %-12s reason=%s instr=%08x\n", i, r.Type,
			asm.PanicReasonFromByte(r.Reason), r.Instruction)
	case types.ReceiptRevert:
		fmt.Printf("%3d %-12s val=%d\n", i, r.Type, r.RA)
	case types.ReceiptLog:
		fmt.Printf("%3d %-12s %d %d %d %d\n", i, r.Type, r.RA, r.RB, r.RC, r.RD)
	case types.ReceiptTransfer:
		fmt.Printf("%3d %-12s to=%s amount=%d\n", i, r.Type, r.To.Hex(), r.Amount)
	case types.ReceiptTransferOut:
		fmt.Printf("%3d %-12s to=%s amount=%d\n", i, r.Type, r.ToAddr.Hex(), r.Amount)
	case types.ReceiptScriptResult:
		fmt.Printf("%3d %-12s status=%s gasUsed=%d\n", i, r.Type, r.Status, r.GasUsed)
	default:
		fmt.Printf("%3d %s\n", i, r.Type)
	}
}
