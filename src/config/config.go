package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Config 结构体定义了应用程序的配置结构
type Config struct {
	// Email 从邮箱拉取数据集附件
	Email struct {
		Enabled       bool     `json:"enabled"`
		Server        string   `json:"server"`         // IMAP 服务器地址(含端口)
		Username      string   `json:"username"`       // 邮箱用户名
		Password      string   `json:"password"`       // 邮箱密码/授权码
		TargetSubject string   `json:"target_subject"` // 需要匹配的邮件主题
		CheckInterval Duration `json:"check_interval"` // 检查新邮件的间隔时间
	} `json:"email"`

	DataDir   string   `json:"data_dir"`   // 输入数据目录
	OutputDir string   `json:"output_dir"` // 结果输出目录
	InputFile string   `json:"input_file"` // 数据集文件名(csv/txt/xlsx)
	Delimiter string   `json:"delimiter"`
	Encoding  string   `json:"encoding"`
	SheetName string   `json:"sheet_name"`
	NaNValues []string `json:"nan_values"`

	LogName    string `json:"log_name"`
	LogMaxSize string `json:"log_max_size"`
	LogAddr    string `json:"log_addr"` // 实时日志 HTTP 地址，为空则不启动

	Schedule string `json:"schedule"` // cron 表达式，为空则只运行一次
	Watch    bool   `json:"watch"`    // 监听 DataDir 中输入文件的变化

	SendEmail struct {
		Enabled  bool     `json:"enabled"`
		Server   string   `json:"server"`
		Username string   `json:"username"`
		Password string   `json:"password"`
		To       []string `json:"to"`
		Subject  string   `json:"subject"`
	} `json:"send_email"`

	DingTalk struct {
		Webhook string `json:"webhook"`
		Title   string `json:"title"`
	} `json:"dingtalk"`
}

// DataConfig describes what the pipeline does with the dataset.
type DataConfig struct {
	Required  []string                     `json:"required"`
	Types     map[string]string            `json:"types"`
	Rename    map[string]string            `json:"rename"`
	Labels    map[string]map[string]string `json:"labels"`
	Transform []Transform                  `json:"transform"`
	Reports   []Report                     `json:"reports"`
	Charts    []Chart                      `json:"charts"`
}

// Transform is one configured pipeline step.
type Transform struct {
	Kind    string  `json:"kind"`
	Options Options `json:"options"`
}

// Report is a robust group aggregation written to the output directory.
type Report struct {
	Name          string `json:"name"`
	GroupBy       string `json:"group_by"`
	Column        string `json:"column"`
	MinSampleSize int    `json:"min_sample_size"`
	// Labels names a label table applied to the group column.
	Labels string `json:"labels"`
	// Top keeps the first N rows after ordering by the aggregate; 0 keeps all.
	Top   int    `json:"top"`
	Order string `json:"order"` // "desc" or "asc"
}

// Chart renders a persisted table (a report, or "processed") as a chart.
type Chart struct {
	Name   string `json:"name"`
	Type   string `json:"type"`
	Source string `json:"source"`
	X      string `json:"x"`
	Y      string `json:"y"`
	Bins   int    `json:"bins"`
	Title  string `json:"title"`
	XLabel string `json:"xlabel"`
	YLabel string `json:"ylabel"`
}

var (
	once               sync.Once
	instance           *Config
	dataConfigInstance *DataConfig
	mu                 sync.RWMutex
)

// LoadConfig 加载进程级单例配置，只在第一次调用时读取文件
func LoadConfig(jsonFolder, jsonFile, dataJsonFile string) (*Config, *DataConfig, error) {
	var err error
	once.Do(func() {
		instance, dataConfigInstance, err = Load(jsonFolder, jsonFile, dataJsonFile)
	})
	return instance, dataConfigInstance, err
}

// Load reads both configuration files. The two documents are parsed
// concurrently.
func Load(jsonFolder, jsonFile, dataJsonFile string) (*Config, *DataConfig, error) {
	configData, err := readFile(filepath.Join(jsonFolder, jsonFile))
	if err != nil {
		return nil, nil, fmt.Errorf("read config: %w", err)
	}
	dataConfigData, err := readFile(filepath.Join(jsonFolder, dataJsonFile))
	if err != nil {
		return nil, nil, fmt.Errorf("read data config: %w", err)
	}

	cfgChan := make(chan *Config, 1)
	dcfgChan := make(chan *DataConfig, 1)
	errChan := make(chan error, 2)

	go parseConfig(configData, cfgChan, errChan)
	go parseDataConfig(dataConfigData, dcfgChan, errChan)

	cfg, dcfg, err := waitForResults(cfgChan, dcfgChan, errChan)
	if err != nil {
		return nil, nil, err
	}
	cfg.applyDefaults()
	if err := dcfg.Validate(); err != nil {
		return nil, nil, err
	}
	return cfg, dcfg, nil
}

func readFile(filePath string) ([]byte, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("无法读取文件 %s: %w", filePath, err)
	}
	return data, nil
}

func parseConfig(data []byte, resultChan chan<- *Config, errChan chan<- error) {
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		errChan <- fmt.Errorf("parse Config: %w", err)
		return
	}
	resultChan <- &cfg
}

func parseDataConfig(data []byte, resultChan chan<- *DataConfig, errChan chan<- error) {
	var dcfg DataConfig
	if err := json.Unmarshal(data, &dcfg); err != nil {
		errChan <- fmt.Errorf("parse DataConfig: %w", err)
		return
	}
	resultChan <- &dcfg
}

func waitForResults(
	cfgChan <-chan *Config,
	dcfgChan <-chan *DataConfig,
	errChan <-chan error,
) (*Config, *DataConfig, error) {
	var (
		cfg  *Config
		dcfg *DataConfig
		errs []error
	)

	for i := 0; i < 2; i++ {
		select {
		case c := <-cfgChan:
			cfg = c
		case d := <-dcfgChan:
			dcfg = d
		case err := <-errChan:
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return nil, nil, errors.Join(errs...)
	}
	if cfg == nil || dcfg == nil {
		return nil, nil, fmt.Errorf("configuration partially loaded")
	}
	return cfg, dcfg, nil
}

func (c *Config) applyDefaults() {
	if c.DataDir == "" {
		c.DataDir = "data"
	}
	if c.OutputDir == "" {
		c.OutputDir = "output"
	}
	if c.Delimiter == "" {
		c.Delimiter = ","
	}
	if c.Encoding == "" {
		c.Encoding = "utf-8"
	}
	if c.LogName == "" {
		c.LogName = "app.log"
	}
	if len(c.NaNValues) == 0 {
		c.NaNValues = []string{"", "NA", "NaN", "<nil>"}
	}
}

// InputPath is the dataset location inside DataDir.
func (c *Config) InputPath() string {
	return filepath.Join(c.DataDir, c.InputFile)
}

// Validate checks the cross references inside the data configuration.
func (dc *DataConfig) Validate() error {
	var errs []error
	names := map[string]bool{"processed": true}
	for i, r := range dc.Reports {
		switch {
		case r.Name == "":
			errs = append(errs, fmt.Errorf("reports[%d]: name is required", i))
		case names[r.Name]:
			errs = append(errs, fmt.Errorf("reports[%d]: duplicate name %q", i, r.Name))
		}
		names[r.Name] = true
		if r.GroupBy == "" || r.Column == "" {
			errs = append(errs, fmt.Errorf("reports[%d]: group_by and column are required", i))
		}
		if r.MinSampleSize < 0 {
			errs = append(errs, fmt.Errorf("reports[%d]: min_sample_size must not be negative", i))
		}
		if r.Labels != "" {
			if _, ok := dc.Labels[r.Labels]; !ok {
				errs = append(errs, fmt.Errorf("reports[%d]: unknown label table %q", i, r.Labels))
			}
		}
		if r.Order != "" && r.Order != "asc" && r.Order != "desc" {
			errs = append(errs, fmt.Errorf("reports[%d]: order must be asc or desc", i))
		}
	}
	for i, c := range dc.Charts {
		if c.Name == "" || c.Type == "" {
			errs = append(errs, fmt.Errorf("charts[%d]: name and type are required", i))
		}
		if c.Source != "" && !names[c.Source] {
			errs = append(errs, fmt.Errorf("charts[%d]: unknown source %q", i, c.Source))
		}
	}
	for i, t := range dc.Transform {
		if t.Kind == "" {
			errs = append(errs, fmt.Errorf("transform[%d]: kind is required", i))
		}
	}
	return errors.Join(errs...)
}

// GetLabels returns the named label table.
func (dc *DataConfig) GetLabels(name string) (map[string]string, bool) {
	mu.RLock()
	defer mu.RUnlock()
	l, ok := dc.Labels[name]
	return l, ok
}

// SetLabels registers or replaces a label table.
func (dc *DataConfig) SetLabels(name string, labels map[string]string) {
	mu.Lock()
	defer mu.Unlock()
	if dc.Labels == nil {
		dc.Labels = make(map[string]map[string]string)
	}
	dc.Labels[name] = labels
}

// Duration 是time.Duration的自定义包装类型
// 用于支持JSON序列化和反序列化
type Duration time.Duration

// UnmarshalJSON 实现json.Unmarshaler接口
// 用于从JSON字符串解析Duration
func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	dur, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(dur)
	return nil
}

// MarshalJSON 实现json.Marshaler接口
// 用于将Duration序列化为JSON字符串
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}
