package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charlesren/ylog"
	"github.com/xuri/excelize/v2"
	"gopkg.in/yaml.v3"

	"github.com/charlesren/cli_thrower/prompt"
)

var ErrEmptySheet = errors.New("host sheet has no header row")

// Loader 参数文件加载器。目录结构：
//
//	<base>/prompts/<type>_prompt.yml
//	<base>/hosts/*.yml|*.xlsx
//	<base>/commands/*.yml
//	<base>/opts/<protocol>_opts.yml
type Loader struct {
	baseDir string
}

func NewLoader(baseDir string) (*Loader, error) {
	abs, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, fmt.Errorf("resolve base dir %s: %w", baseDir, err)
	}
	return &Loader{baseDir: abs}, nil
}

func (l *Loader) BaseDir() string     { return l.baseDir }
func (l *Loader) PromptsDir() string  { return filepath.Join(l.baseDir, "prompts") }
func (l *Loader) HostsDir() string    { return filepath.Join(l.baseDir, "hosts") }
func (l *Loader) CommandsDir() string { return filepath.Join(l.baseDir, "commands") }
func (l *Loader) OptsDir() string     { return filepath.Join(l.baseDir, "opts") }

// LoadHosts reads a host list. name may be absolute, relative to the
// working directory, or relative to the hosts dir.
func (l *Loader) LoadHosts(name string) ([]Host, error) {
	path := resolve(l.HostsDir(), name)
	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".xlsx" {
		return loadHostsFromSheet(path)
	}

	var hosts []Host
	if err := loadYAMLFile("host list", path, &hosts); err != nil {
		return nil, err
	}
	return hosts, nil
}

// LoadCommands reads a command list (YAML sequence of strings).
func (l *Loader) LoadCommands(name string) ([]string, error) {
	path := resolve(l.CommandsDir(), name)
	var commands []string
	if err := loadYAMLFile("command list", path, &commands); err != nil {
		return nil, err
	}
	return commands, nil
}

// LoadPrompt reads prompts/<deviceType>_prompt.yml.
func (l *Loader) LoadPrompt(deviceType string) (*prompt.Set, error) {
	if deviceType == "" {
		return nil, errors.New("host type is empty")
	}
	path := filepath.Join(l.PromptsDir(), deviceType+"_prompt.yml")
	set := &prompt.Set{}
	if err := loadYAMLFile("prompt file", path, set); err != nil {
		return nil, err
	}
	return set, nil
}

// LoadSpawnOpts reads opts/<protocol>_opts.yml. A missing file is not an
// error: the protocol simply gets no extra options.
func (l *Loader) LoadSpawnOpts(protocol string) ([]string, error) {
	path := filepath.Join(l.OptsDir(), protocol+"_opts.yml")
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		ylog.Warnf("config", "Opts file %s not found.", path)
		return []string{}, nil
	}
	var opts []string
	if err := loadYAMLFile(protocol+" opts file", path, &opts); err != nil {
		return nil, err
	}
	return opts, nil
}

func resolve(dir, name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	if _, err := os.Stat(name); err == nil {
		return name
	}
	return filepath.Join(dir, name)
}

func loadYAMLFile(fileType, path string, out interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		ylog.Errorf("config", "Cannot load %s: %s", fileType, path)
		return fmt.Errorf("load %s %s: %w", fileType, path, err)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		ylog.Errorf("config", "Cannot parse %s: %s", fileType, path)
		return fmt.Errorf("parse %s %s: %w", fileType, path, err)
	}
	return nil
}

// loadHostsFromSheet 从 Excel 第一个工作表读取主机列表，首行为字段名。
func loadHostsFromSheet(path string) ([]Host, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		ylog.Errorf("config", "open file : %v with err: %v", path, err)
		return nil, fmt.Errorf("open host sheet %s: %w", path, err)
	}
	defer func() {
		if err := f.Close(); err != nil {
			ylog.Errorf("config", "close file : %v with err: %v", path, err)
		}
	}()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmptySheet
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read rows of %s: %w", path, err)
	}
	if len(rows) == 0 {
		return nil, ErrEmptySheet
	}

	header := make([]string, len(rows[0]))
	for i, name := range rows[0] {
		header[i] = strings.ToLower(strings.TrimSpace(name))
	}

	hosts := make([]Host, 0, len(rows)-1)
	for n, row := range rows[1:] {
		record := make(map[string]string, len(header))
		for i, name := range header {
			if name == "" || i >= len(row) || row[i] == "" {
				continue
			}
			record[name] = row[i]
		}
		if len(record) == 0 {
			continue
		}
		host, err := hostFromRecord(record)
		if err != nil {
			return nil, fmt.Errorf("row %d of %s: %w", n+2, path, err)
		}
		hosts = append(hosts, host)
	}
	return hosts, nil
}

// hostFromRecord 复用 yaml 标签把表格行映射为 Host
func hostFromRecord(record map[string]string) (Host, error) {
	data, err := yaml.Marshal(record)
	if err != nil {
		return Host{}, err
	}
	var host Host
	if err := yaml.Unmarshal(data, &host); err != nil {
		return Host{}, err
	}
	return host, nil
}
