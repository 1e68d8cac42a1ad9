package module

import "strings"

// Module 描述一个文件型内容模块：key 全局唯一，Dependencies 为依赖模块的 key 列表。
// 模块由 catalog 发现并持有，核心流程只读不写。
type Module struct {
	// Key uniquely identifies the module within the catalog.
	Key string
	// Name is the human readable display name.
	Name string
	// Folder is the `/`-joined folder path the module lives under,
	// relative to the modules root. Empty for top-level modules.
	Folder string
	// FilePath 指向模块清单文件的绝对路径，供编辑器打开。
	FilePath string
	// Template names the template used to render this module.
	Template string
	// Dependencies lists the keys of modules required to render this one.
	// The list may include the module's own key.
	Dependencies []string
}

// DecodeFolderKey reconstructs a `/`-joined folder path from a hyphen-joined
// route segment, e.g. "patient-group" -> "patient/group".
func DecodeFolderKey(segment string) string {
	return strings.Join(strings.Split(segment, "-"), "/")
}

// EncodeFolderKey is the inverse of DecodeFolderKey for building routes.
func EncodeFolderKey(path string) string {
	return strings.Join(strings.Split(path, "/"), "-")
}

// InFolder reports whether the module's folder equals path or lies below it.
func (m Module) InFolder(path string) bool {
	if path == "" {
		return true
	}
	return m.Folder == path || strings.HasPrefix(m.Folder, path+"/")
}
