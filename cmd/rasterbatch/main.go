package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/wgdzlh/rasterbatch"
	"github.com/wgdzlh/rasterbatch/log"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"sigs.k8s.io/yaml"
)

var (
	toolbox   *rasterbatch.Toolbox
	remote    *rasterbatch.Remote
	startTime time.Time
)

var rootCmd = &cobra.Command{
	Use:   "rasterbatch",
	Short: "batch raster reprojection, mosaicking and zonal statistics",
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: true,
	},
	SilenceUsage: true,

	PersistentPreRunE: func(cmd *cobra.Command, args []string) (err error) {
		startTime = time.Now()
		if cfg := viper.GetString("config"); cfg != "" {
			viper.SetConfigFile(cfg)
			if err = viper.ReadInConfig(); err != nil {
				return fmt.Errorf("read config %s: %w", cfg, err)
			}
		}
		if viper.GetBool("json-log") {
			log.Structured()
		}
		if viper.GetBool("verbose") {
			log.SetLevel("debug")
		}
		toolbox = rasterbatch.NewToolbox(viper.GetString("tmp-dir"))
		if viper.GetBool("gcs") {
			if remote, err = rasterbatch.NewRemote(cmd.Context(), viper.GetString("blocksize"), viper.GetInt("numblocks")); err != nil {
				return
			}
			toolbox.WithRemote(remote)
		}
		return
	},
	PersistentPostRun: func(cmd *cobra.Command, _ []string) {
		if remote != nil {
			remote.Close()
		}
		log.Debug("command finished", zap.String("cmd", cmd.Name()), zap.Duration("took", time.Since(startTime)))
		log.Sync()
	},
}

func init() {
	viper.SetEnvPrefix("RASTERBATCH")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "yaml/json/toml config file, keys grouped by command name")
	pf.Bool("verbose", false, "verbose output")
	pf.Bool("json-log", false, "structured json logs")
	pf.Bool("gcs", false, "register gs:// input paths")
	pf.String("blocksize", rasterbatch.DEFAULT_BLOCK_SIZE, "gs cache blocksize")
	pf.Int("numblocks", rasterbatch.DEFAULT_NUM_CACHED_BLOCKS, "number of gs cached blocks")
	pf.String("tmp-dir", "", "directory for temporary files")
	pf.String("report", "", "write the run report as yaml to this file (- for stdout)")
	bindFlags(pf, "")

	rootCmd.AddCommand(reprojectCmd, mosaicCmd, batchMosaicCmd, zonalCmd)
}

// 将flag绑定到viper，section非空时键名为<section>.<flag>
func bindFlags(fs *pflag.FlagSet, section string) {
	fs.VisitAll(func(f *pflag.Flag) {
		key := f.Name
		if section != "" {
			key = section + "." + key
		}
		if err := viper.BindPFlag(key, f); err != nil {
			panic(err)
		}
	})
}

// flag和配置文件中都未提供时报错
func requireKeys(section string, names ...string) error {
	for _, n := range names {
		if viper.GetString(section+"."+n) == "" {
			return fmt.Errorf("required flag \"%s\" not set", n)
		}
	}
	return nil
}

func writeReport(cmd *cobra.Command, report any) error {
	path := viper.GetString("report")
	if path == "" {
		return nil
	}
	raw, err := yaml.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	if path == "-" {
		_, err = cmd.OutOrStdout().Write(raw)
		return err
	}
	return os.WriteFile(path, raw, 0o644)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
