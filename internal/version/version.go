// 包 version：构建期注入的版本标识，供 /config.js 与日志输出使用
package version

// Commit：构建时通过 -ldflags "-X gdt-helper/internal/version.Commit=..." 注入
var Commit = "dev"
