package main

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/wgdzlh/rasterbatch"
	"github.com/wgdzlh/rasterbatch/utils"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// 配置文件中的列表既可写成数组也可写成逗号分隔的字符串
func listValue(key string) []string {
	return utils.SplitList(strings.Join(viper.GetStringSlice(key), ","))
}

var reprojectCmd = &cobra.Command{
	Use:   "reproject",
	Short: "reproject every raster of a directory onto the grid of a reference raster",
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return requireKeys("reproject", "src", "ref", "out")
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		sw, err := rasterbatch.ParseWarpSwitches(viper.GetString("reproject.warp-switches"))
		if err != nil {
			return err
		}
		match := viper.GetBool("reproject.match-resolution")
		report, err := toolbox.BatchReproject(cmd.Context(), rasterbatch.ReprojectJob{
			SrcDir:          viper.GetString("reproject.src"),
			RefPath:         viper.GetString("reproject.ref"),
			OutDir:          viper.GetString("reproject.out"),
			MatchResolution: &match,
			InputFormats:    listValue("reproject.formats"),
			OutputFormat:    viper.GetString("reproject.of"),
			ExtraSwitches:   sw,
			Workers:         viper.GetInt("reproject.workers"),
		})
		if report != nil {
			if e := writeReport(cmd, report); e != nil && err == nil {
				err = e
			}
		}
		return err
	},
}

func mosaicJob(section string) (job rasterbatch.MosaicJob, err error) {
	if job.ExtraSwitches, err = rasterbatch.ParseWarpSwitches(viper.GetString(section + ".warp-switches")); err != nil {
		return
	}
	if job.Naming, err = rasterbatch.ParseNamingPolicy(viper.GetString(section + ".naming")); err != nil {
		return
	}
	job.CheckProjection = viper.GetBool(section + ".check-projection")
	job.Extensions = listValue(section + ".formats")
	return
}

var mosaicCmd = &cobra.Command{
	Use:   "mosaic",
	Short: "mosaic all tif images of a directory into <name>_Mosaic.tif",
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return requireKeys("mosaic", "in")
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		job, err := mosaicJob("mosaic")
		if err != nil {
			return err
		}
		job.InputDir = viper.GetString("mosaic.in")
		job.OutputDir = viper.GetString("mosaic.out")
		out, err := toolbox.Mosaic(cmd.Context(), job)
		if errors.Is(err, rasterbatch.ErrInsufficientInput) {
			fmt.Fprintf(cmd.OutOrStdout(), "nothing to mosaic: %v\n", err)
			return nil
		}
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), out)
		return nil
	},
}

var batchMosaicCmd = &cobra.Command{
	Use:   "batch-mosaic",
	Short: "mosaic every subfolder of a parent directory",
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return requireKeys("batch-mosaic", "parent", "out")
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		mj, err := mosaicJob("batch-mosaic")
		if err != nil {
			return err
		}
		job := rasterbatch.BatchMosaicJob{
			ParentDir: viper.GetString("batch-mosaic.parent"),
			OutputDir: viper.GetString("batch-mosaic.out"),
			Mosaic:    mj,
			Workers:   viper.GetInt("batch-mosaic.workers"),
		}
		if viper.GetBool("batch-mosaic.recursive") {
			job.Scan = rasterbatch.ScanRecursive
		}
		report, err := toolbox.BatchMosaic(cmd.Context(), job)
		if report != nil {
			if e := writeReport(cmd, report); e != nil && err == nil {
				err = e
			}
		}
		return err
	},
}

type zonalSummary struct {
	Vector string   `json:"vector"`
	Raster string   `json:"raster"`
	Output string   `json:"output,omitempty"`
	Rows   int      `json:"rows"`
	Empty  int      `json:"empty"` // 无有效像元的要素数
	Stats  []string `json:"stats"`
	Fields []string `json:"fields"`
}

var zonalCmd = &cobra.Command{
	Use:   "zonal",
	Short: "compute raster statistics for every feature of a vector layer",
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return requireKeys("zonal", "vector", "raster", "out")
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		job := rasterbatch.ZonalJob{
			VectorPath: viper.GetString("zonal.vector"),
			RasterPath: viper.GetString("zonal.raster"),
			OutputPath: viper.GetString("zonal.out"),
			Stats:      listValue("zonal.stats"),
			Band:       viper.GetInt("zonal.band"),
			AllTouched: viper.GetBool("zonal.all-touched"),
		}
		table, err := toolbox.ZonalStatistics(cmd.Context(), job)
		if err != nil {
			return err
		}
		sum := zonalSummary{
			Vector: job.VectorPath,
			Raster: job.RasterPath,
			Output: job.OutputPath,
			Rows:   len(table.Rows),
			Stats:  table.Stats,
			Fields: append([]string(nil), table.Fields...),
		}
		sort.Strings(sum.Fields)
		for _, r := range table.Rows {
			if c, ok := r.Stats[rasterbatch.StatCount]; ok && c == 0 {
				sum.Empty++
			}
		}
		return writeReport(cmd, sum)
	},
}

func init() {
	reprojectCmd.Flags().String("src", "", "directory of rasters to reproject")
	reprojectCmd.Flags().String("ref", "", "reference raster providing projection and pixel size")
	reprojectCmd.Flags().String("out", "", "output directory")
	reprojectCmd.Flags().Bool("match-resolution", true, "also match the reference pixel size")
	reprojectCmd.Flags().StringSlice("formats", rasterbatch.DefaultInputFormats, "input file extensions")
	reprojectCmd.Flags().String("of", rasterbatch.FORMAT_GTIFF, "output format (GTiff, HFA, ENVI)")
	reprojectCmd.Flags().String("warp-switches", "", "extra gdalwarp switches. e.g: \"-co COMPRESS=LZW -wo NUM_THREADS=ALL_CPUS\"")
	reprojectCmd.Flags().Int("workers", 1, "number of files processed concurrently")
	bindFlags(reprojectCmd.Flags(), "reproject")

	mosaicCmd.Flags().String("in", "", "directory of tif images")
	mosaicCmd.Flags().String("out", "", "output directory (defaults to --in)")
	mosaicCmd.Flags().Bool("check-projection", false, "refuse to mosaic images with different projections")
	mosaicCmd.Flags().String("naming", "folder", "output naming: folder or date")
	mosaicCmd.Flags().StringSlice("formats", rasterbatch.DefaultMosaicFormats, "input file extensions")
	mosaicCmd.Flags().String("warp-switches", "", "extra gdalwarp switches")
	bindFlags(mosaicCmd.Flags(), "mosaic")

	batchMosaicCmd.Flags().String("parent", "", "parent directory whose subfolders are mosaicked")
	batchMosaicCmd.Flags().String("out", "", "output directory")
	batchMosaicCmd.Flags().Bool("recursive", false, "scan subfolders at every depth")
	batchMosaicCmd.Flags().Bool("check-projection", false, "refuse to mosaic images with different projections")
	batchMosaicCmd.Flags().String("naming", "folder", "output naming: folder or date")
	batchMosaicCmd.Flags().StringSlice("formats", rasterbatch.DefaultMosaicFormats, "input file extensions")
	batchMosaicCmd.Flags().String("warp-switches", "", "extra gdalwarp switches")
	batchMosaicCmd.Flags().Int("workers", 1, "number of folders processed concurrently")
	bindFlags(batchMosaicCmd.Flags(), "batch-mosaic")

	zonalCmd.Flags().String("vector", "", "polygon layer (shp, gpkg, geojson)")
	zonalCmd.Flags().String("raster", "", "raster to summarize")
	zonalCmd.Flags().String("out", "", "output vector file, driver chosen by extension")
	zonalCmd.Flags().StringSlice("stats", rasterbatch.DefaultZonalStats, "statistics, e.g. count,min,max,mean,percentile_90")
	zonalCmd.Flags().Int("band", rasterbatch.DEFAULT_BAND, "raster band (1-based)")
	zonalCmd.Flags().Bool("all-touched", false, "include every pixel touched by the polygon")
	bindFlags(zonalCmd.Flags(), "zonal")
}
