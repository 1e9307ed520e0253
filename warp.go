package rasterbatch

import (
	"fmt"

	"github.com/mattn/go-shellwords"
)

// 解析命令行形式的额外gdalwarp参数，如 "-co COMPRESS=LZW -wo NUM_THREADS=ALL_CPUS"
func ParseWarpSwitches(s string) (sw []string, err error) {
	if sw, err = shellwords.Parse(s); err != nil {
		err = fmt.Errorf("invalid warp switches: %w", err)
		return
	}
	err = CheckWarpSwitches(sw)
	return
}

// 坐标系、分辨率、格式、重采样方式由编排逻辑决定，不允许额外指定
func CheckWarpSwitches(sw []string) error {
	for _, s := range sw {
		if _, ok := reservedWarpSwitches[s]; ok {
			return fmt.Errorf("%w: %s", ErrInvalidSwitch, s)
		}
	}
	return nil
}
