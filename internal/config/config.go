package config

type Config struct {
	Elasticsearch struct {
		Username string `json:"username"`
		Password string `json:"password"`
		Address  string `json:"address"`
		Index    string `json:"index"`
		// InsecureSkipVerify 跳过TLS验证（仅在开发环境中使用）
		InsecureSkipVerify bool `json:"insecure_skip_verify"`
	} `json:"elasticsearch"`

	// Driver 选择浏览器后端: "chromedp"(默认) 或 "rod"
	Browser struct {
		Driver string `json:"driver"`
	} `json:"browser"`

	Rod struct {
		UserDataDir          string `json:"user_data_dir"`
		Headless             bool   `json:"headless"`
		DisableBlinkFeatures string `json:"disable_blink_features"`
		Incognito            bool   `json:"incognito"`
		DisableDevShmUsage   bool   `json:"disable_dev_shm_usage"`
		NoSandbox            bool   `json:"no_sandbox"`
		UserAgent            string `json:"user_agent"`
		Leakless             bool   `json:"leakless"`
		Bin                  string `json:"bin"`
		Stealth              bool   `json:"stealth"`
	} `json:"rod"`

	Chromedp struct {
		LifeTime             int    `json:"life_time"`
		UserDataDir          string `json:"user_data_dir"`
		Headless             bool   `json:"headless"`
		DisableBlinkFeatures string `json:"disable_blink_features"`
		Incognito            bool   `json:"incognito"`
		DisableDevShmUsage   bool   `json:"disable_dev_shm_usage"`
		NoSandbox            bool   `json:"no_sandbox"`
		UserAgent            string `json:"user_agent"`
	} `json:"chromedp"`

	Translator struct {
		Host              string  `json:"host"`
		Port              int     `json:"port"`
		Model             string  `json:"model"`
		SourceLang        string  `json:"source_lang"`
		DestLang          string  `json:"dest_lang"`
		ChunkSize         int     `json:"chunk_size"`
		RequestsPerSecond float64 `json:"requests_per_second"`
		TimeoutSeconds    int     `json:"timeout_seconds"`
	} `json:"translator"`

	// Crawl 所有时间单位均为秒
	Crawl struct {
		BaseURL             string `json:"base_url"`
		MaxPages            int    `json:"max_pages"`
		MaxClickAttempts    int    `json:"max_click_attempts"`
		ClickTimeout        int    `json:"click_timeout"`
		ClickBackoff        int    `json:"click_backoff"`
		MaskTimeout         int    `json:"mask_timeout"`
		ListTimeout         int    `json:"list_timeout"`
		DetailTimeout       int    `json:"detail_timeout"`
		PageSettle          int    `json:"page_settle"`
		ReleaseDateTimezone string `json:"release_date_timezone"`
		StoreTimeout        int    `json:"store_timeout"`
	} `json:"crawl"`

	Selectors Selectors `json:"selectors"`
}

// Selectors 页面上所有依赖的选择器都集中在这里,目标站点改版时只需修改这一处
type Selectors struct {
	ContentLink    string `json:"content_link"`
	LoadingMask    string `json:"loading_mask"`
	DetailPane     string `json:"detail_pane"`
	BackButton     string `json:"back_button"`
	NextPage       string `json:"next_page"`
	DetailTitle    string `json:"detail_title"`
	DetailSubtitle string `json:"detail_subtitle"`
	DetailContent  string `json:"detail_content"`
	TableClass     string `json:"table_class"`
}

// DefaultSelectors 对应 CNNVD 预警列表页(Element UI)
func DefaultSelectors() Selectors {
	return Selectors{
		ContentLink:    ".content-title",
		LoadingMask:    ".el-loading-mask",
		DetailPane:     ".detail-info.el-col.el-col-16",
		BackButton:     ".el-page-header__left",
		NextPage:       ".el-icon-arrow-right",
		DetailTitle:    ".detail-title",
		DetailSubtitle: ".detail-subtitle",
		DetailContent:  ".detail-content",
		TableClass:     "MsoTableGrid",
	}
}
