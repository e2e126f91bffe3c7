package pagescan

// dedupeMap 去重映射：唯一原文列表和每个位置对应的唯一下标
type dedupeMap struct {
	unique  []string
	textIdx []int
	attrIdx []int
}

// dedupe 按首次出现顺序为快照中的原文分配稠密下标
func dedupe(snap Snapshot) dedupeMap {
	d := dedupeMap{
		textIdx: make([]int, len(snap.Texts)),
		attrIdx: make([]int, len(snap.Attrs)),
	}
	index := make(map[string]int, snap.Len())

	push := func(key string) int {
		if i, ok := index[key]; ok {
			return i
		}
		i := len(d.unique)
		d.unique = append(d.unique, key)
		index[key] = i
		return i
	}

	for i, t := range snap.Texts {
		d.textIdx[i] = push(t.Key)
	}
	for i, a := range snap.Attrs {
		d.attrIdx[i] = push(a.Key)
	}
	return d
}
