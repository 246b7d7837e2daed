package errors

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category Category
	Message  string
	Detail   string
	DocURL   string
}

const docBase = "https://myvite.dev/errors/"

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// ============================================
	// Config Errors (E100-E119)
	// ============================================

	"E100": {
		Category: CategoryConfig,
		Message:  "Config file not found",
		Detail:   "No myvite.json, myvite.yaml or myvite.yml was found in the project directory or any parent.",
		DocURL:   docBase + "E100",
	},
	"E101": {
		Category: CategoryConfig,
		Message:  "Config file could not be parsed",
		Detail:   "The configuration file is not valid JSON or YAML.",
		DocURL:   docBase + "E101",
	},
	"E102": {
		Category: CategoryConfig,
		Message:  "Invalid configuration",
		Detail:   "A configuration value is out of range or malformed.",
		DocURL:   docBase + "E102",
	},
	"E103": {
		Category: CategoryConfig,
		Message:  "Env file could not be read",
		Detail:   "A .env file exists but could not be parsed.",
		DocURL:   docBase + "E103",
	},
	"E110": {
		Category: CategoryConfig,
		Message:  "Project root not found",
		Detail:   "The configured root directory does not exist.",
		DocURL:   docBase + "E110",
	},
	"E111": {
		Category: CategoryConfig,
		Message:  "Entry file not found",
		Detail:   "No build.input is configured and no src/main.* file exists.",
		DocURL:   docBase + "E111",
	},
	"E112": {
		Category: CategoryConfig,
		Message:  "index.html not found",
		Detail:   "The project root must contain an index.html document.",
		DocURL:   docBase + "E112",
	},

	// ============================================
	// Transform Errors (E200-E219)
	// ============================================

	"E200": {
		Category: CategoryTransform,
		Message:  "File not found",
		Detail:   "The requested file does not exist under the project root.",
		DocURL:   docBase + "E200",
	},
	"E201": {
		Category: CategoryTransform,
		Message:  "Forbidden path",
		Detail:   "The request path escapes the project root.",
		DocURL:   docBase + "E201",
	},
	"E210": {
		Category: CategoryTransform,
		Message:  "Could not parse module specifiers",
		Detail:   "The module source could not be tokenized, so its imports cannot be rewritten for the browser.",
		DocURL:   docBase + "E210",
	},
	"E211": {
		Category: CategoryTransform,
		Message:  "Script transform failed",
		Detail:   "The script could not be converted to browser-runnable JavaScript.",
		DocURL:   docBase + "E211",
	},

	// ============================================
	// Compile Errors (E220-E239)
	// ============================================

	"E220": {
		Category: CategoryCompile,
		Message:  "Component compilation failed",
		Detail:   "The component compiler rejected the file.",
		DocURL:   docBase + "E220",
	},
	"E221": {
		Category: CategoryCompile,
		Message:  "Unsupported component feature",
		Detail:   "The builtin compiler cannot compile this component.",
		DocURL:   docBase + "E221",
	},
	"E230": {
		Category: CategoryCompile,
		Message:  "Node component compiler unavailable",
		Detail:   "node or @vue/compiler-sfc could not be found.",
		DocURL:   docBase + "E230",
	},

	// ============================================
	// Build Errors (E300-E419)
	// ============================================

	"E300": {
		Category: CategoryBuild,
		Message:  "Dependency pre-bundling failed",
		Detail:   "esbuild could not bundle one or more bare imports.",
		DocURL:   docBase + "E300",
	},
	"E400": {
		Category: CategoryBuild,
		Message:  "Production build failed",
		Detail:   "The bundler reported errors.",
		DocURL:   docBase + "E400",
	},
	"E410": {
		Category: CategoryBuild,
		Message:  "Publish failed",
		Detail:   "The build output could not be uploaded.",
		DocURL:   docBase + "E410",
	},

	// ============================================
	// HMR Errors (E500-E519)
	// ============================================

	"E500": {
		Category: CategoryHMR,
		Message:  "WebSocket upgrade failed",
		Detail:   "The browser's update channel could not be established.",
		DocURL:   docBase + "E500",
	},

	// ============================================
	// CLI Errors (E600-E619)
	// ============================================

	"E600": {
		Category: CategoryCLI,
		Message:  "Invalid flag value",
		Detail:   "A command-line flag has an invalid value.",
		DocURL:   docBase + "E600",
	},
}
