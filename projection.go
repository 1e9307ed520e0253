package rasterbatch

// 检查所有影像坐标系是否与第一个一致，返回是否一致及第一个影像的坐标系
// 空输入返回(false, "")
func CheckProjections(dss []Dataset) (match bool, ref string) {
	idx, ref, _ := firstProjectionMismatch(dss)
	match = len(dss) > 0 && idx < 0
	return
}

// 返回第一个坐标系不一致的影像下标（无则为-1）及双方坐标系
func firstProjectionMismatch(dss []Dataset) (idx int, ref, got string) {
	idx = -1
	if len(dss) == 0 {
		return
	}
	ref = dss[0].Projection()
	for i, ds := range dss[1:] {
		if got = ds.Projection(); got != ref {
			idx = i + 1
			return
		}
	}
	got = ""
	return
}
