package feature

import (
	"strings"

	"github.com/miguelusque/NVTabular/core"
)

// SplitMultiHot 把分隔符拼接的字符串列拆成变长列表：
// "Comedy|Drama" -> ["Comedy", "Drama"]，空字符串 -> 空列表。
// 元素两端空白被去掉，空元素被丢弃。
func SplitMultiHot(column, sep string) Transform {
	return func(cols *core.Columns) (*core.Columns, error) {
		kind, ok := cols.Kind(column)
		if !ok {
			return nil, missingColumn(column)
		}
		if kind != core.KindString {
			return nil, wrongKind("split", column, kind)
		}
		if sep == "" {
			return nil, core.Errorf(core.ModuleFeature, core.ErrorCodeInvalidInput, "feature: empty separator for column %q", column)
		}

		in := cols.Strings[column]
		rows := make([][]string, len(in))
		for i, s := range in {
			row := []string{}
			for _, part := range strings.Split(s, sep) {
				if part = strings.TrimSpace(part); part != "" {
					row = append(row, part)
				}
			}
			rows[i] = row
		}
		return cols.Clone().SetStringLists(column, rows), nil
	}
}
