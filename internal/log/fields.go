package log

// Common field names for structured logging
const (
	FieldComponent     = "component"
	FieldRequestID     = "request_id"
	FieldClientIP      = "client_ip"
	FieldMethod        = "method"
	FieldPath          = "path"
	FieldQuery         = "query"
	FieldStatusCode    = "status_code"
	FieldDuration      = "duration_ms"
	FieldDurationHuman = "duration_human"
	FieldUserAgent     = "user_agent"
	FieldReferer       = "referer"
	FieldSuccess       = "success"
	FieldError         = "error"
	FieldErrorKind     = "error_kind"
	FieldOperation     = "operation"
	FieldYear          = "year"
	FieldDepartment    = "department"
	FieldProduct       = "product"
	FieldItemBy        = "item_by"
	FieldRank          = "rank"
	FieldWindowStart   = "window_start"
	FieldWindowEnd     = "window_end"
	FieldRecords       = "records"
	FieldSource        = "source"
	FieldImportID      = "import_id"
)

// Components defines standard component names
const (
	ComponentApp       = "app"
	ComponentHTTP      = "http"
	ComponentQuery     = "query"
	ComponentImport    = "import"
	ComponentStorage   = "storage"
	ComponentAMQP      = "amqp"
	ComponentWorker    = "worker"
	ComponentSheets    = "sheets"
	ComponentCache     = "cache"
	ComponentSecurity  = "security"
	ComponentRateLimit = "rate_limit"
	ComponentTrace     = "trace"
	ComponentBackend   = "backend"
)

// Operations defines standard operation names
const (
	OpTotalItems     = "total_items"
	OpNthMostItem    = "nth_most_total_item"
	OpDeptPercentage = "percentage_of_department_wise_sold_items"
	OpMonthlySales   = "monthly_sales"
	OpLoad           = "load"
	OpImport         = "import"
	OpPublish        = "publish"
	OpInvalidate     = "invalidate"
	OpShutdown       = "shutdown"
	OpStartup        = "startup"
)

// LogFields provides a builder pattern for structured log fields
type LogFields map[string]any

// NewFields creates a new LogFields instance
func NewFields() LogFields {
	return make(LogFields)
}

func (f LogFields) WithComponent(component string) LogFields {
	f[FieldComponent] = component
	return f
}

func (f LogFields) WithRequestID(requestID string) LogFields {
	f[FieldRequestID] = requestID
	return f
}

func (f LogFields) WithClientIP(ip string) LogFields {
	f[FieldClientIP] = ip
	return f
}

// WithError adds error field
func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

// WithWindow adds the resolved date window.
func (f LogFields) WithWindow(start, end string) LogFields {
	f[FieldWindowStart] = start
	f[FieldWindowEnd] = end
	return f
}

// WithQuery adds the filter parameters of a sales query; empty values are skipped.
func (f LogFields) WithQuery(department, product, itemBy string, rank int) LogFields {
	if department != "" {
		f[FieldDepartment] = department
	}
	if product != "" {
		f[FieldProduct] = product
	}
	if itemBy != "" {
		f[FieldItemBy] = itemBy
	}
	if rank != 0 {
		f[FieldRank] = rank
	}
	return f
}

func (f LogFields) WithRecords(n int) LogFields {
	f[FieldRecords] = n
	return f
}

// ToSlice converts LogFields to a slice for slog
func (f LogFields) ToSlice() []any {
	slice := make([]any, 0, len(f)*2)
	for k, v := range f {
		slice = append(slice, k, v)
	}
	return slice
}
