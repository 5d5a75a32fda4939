// 包 knowledge：内嵌 GD&T 符号知识目录
// 背景：目录随二进制发布，免去运行期文件依赖；解析一次后只读共享
package knowledge

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var catalogYAML []byte

// Symbol：目录中的一条符号说明
type Symbol struct {
	Key        string `yaml:"key" json:"key"`
	Name       string `yaml:"name" json:"name"`
	Category   string `yaml:"category" json:"category"`
	Datums     string `yaml:"datums" json:"datums"`
	ModernNote string `yaml:"modern_note" json:"modern_note,omitempty"`
}

// Catalog：完整符号目录
type Catalog struct {
	Symbols []Symbol `yaml:"symbols" json:"symbols"`
}

// Load：解析内嵌目录
// 约束：内嵌文件损坏属于构建错误而非运行时状况，仍按错误返回交由入口决定退出
func Load() (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(catalogYAML, &c); err != nil {
		return nil, fmt.Errorf("failed to unmarshal the embedded symbol catalog: %w", err)
	}
	if len(c.Symbols) == 0 {
		return nil, fmt.Errorf("embedded symbol catalog is empty")
	}
	return &c, nil
}
