package schema

// Custom string types for type safety.
type (
	// OutputMode represents the format of the summary output.
	OutputMode string

	// DatabaseBackend represents the database backend for run history.
	DatabaseBackend string

	// OperationKind represents which ranking operation produced a workbook.
	OperationKind string
)

// All output modes supported.
const (
	CSVOut  OutputMode = "csv"
	TextOut OutputMode = "text" // default
	JSONOut OutputMode = "json"
)

// All history backends supported.
const (
	SQLiteBackend     DatabaseBackend = "sqlite"
	MySQLBackend      DatabaseBackend = "mysql"
	PostgreSQLBackend DatabaseBackend = "postgresql"
	NoneBackend       DatabaseBackend = "none" // default
)

// All operations supported.
const (
	MonthlyOperation OperationKind = "monthly"
	FinalOperation   OperationKind = "final"
	StatsOperation   OperationKind = "stats"
)

// ValidOutputModes lists all valid output modes.
var ValidOutputModes = map[OutputMode]struct{}{
	CSVOut:  {},
	TextOut: {},
	JSONOut: {},
}

// ValidDatabaseBackends lists all valid history backends.
var ValidDatabaseBackends = map[DatabaseBackend]struct{}{
	SQLiteBackend:     {},
	MySQLBackend:      {},
	PostgreSQLBackend: {},
	NoneBackend:       {},
}

// Workbook layout. Rows are 1-based like the sheet itself.
const (
	BannerRow    = 1
	HeaderRow    = 2
	DataStartRow = 3

	// ExcludedGap is the number of blank rows between the last valid row and the excluded block.
	ExcludedGap = 2
)

// Column headers of the rating workbook.
const (
	KeyHeader            = "原名"
	TranslatedNameHeader = "译名"
	CompositeScoreHeader = "综合评分"
	CompositeRankHeader  = "排名"
	NotesHeader          = "Notes"
	XScoreHeader         = "X"
	XFanHeader           = "X_fan"

	BangumiURLHeader     = "Bangumi_url"
	AnilistURLHeader     = "Anilist_url"
	MyAnimeListURLHeader = "Myanilist_url"
	FilmarksURLHeader    = "Filmarks_url"
)

// NoDataText is written into a rank cell when the title was ranked overall
// but has no score on that platform.
const NoDataText = "NaN"

// Exclusion notes. A title whose trimmed note equals one of these is never ranked.
const (
	InsufficientRuntimeNote = "*时长不足"
	InsufficientDataNote    = "*数据不足"
)

// ExcludedNotes lists all notes that exclude a title from ranking.
var ExcludedNotes = map[string]struct{}{
	InsufficientRuntimeNote: {},
	InsufficientDataNote:    {},
}

// StyleGroup is a set of columns rendered with the same fill colour.
type StyleGroup struct {
	Name    string
	Color   string
	Headers []string
}

// StyleGroups lists the column groups in the order they are painted.
var StyleGroups = []StyleGroup{
	{Name: "基本信息", Color: "E8F4FD", Headers: []string{KeyHeader, TranslatedNameHeader}},
	{Name: "Bangumi", Color: "E8F8E8", Headers: Bangumi.Headers()},
	{Name: "Anilist", Color: "FFF2E8", Headers: Anilist.Headers()},
	{Name: "MyAnimelist", Color: "F8E8F8", Headers: MyAnimeList.Headers()},
	{Name: "Filmarks", Color: "F8F8E8", Headers: Filmarks.Headers()},
	{Name: "综合评分", Color: "E8E8F8", Headers: []string{CompositeScoreHeader, CompositeRankHeader}},
	{Name: "X评分", Color: "F0F0F0", Headers: []string{XScoreHeader, XFanHeader}},
	{Name: "链接", Color: "E8F8F0", Headers: []string{BangumiURLHeader, AnilistURLHeader, MyAnimeListURLHeader, FilmarksURLHeader}},
	{Name: "备注", Color: "FFF8E8", Headers: []string{NotesHeader}},
}

// Application identity shown by the version command and the MCP server.
const (
	AppName        = "mzzbscore"
	AppDisplayName = "Excel动漫评分排名系统"
)
