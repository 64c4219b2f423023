package csvfile

import (
	"database/sql/driver"
	"fmt"
	"strconv"
	"time"

	"github.com/lpizzi13/DM-project/internal/core/domain"
)

// FormatCell renders a driver value as a CSV field. Floats keep a
// fractional part so a backend reporting 4.0 writes "4.0", not "4".
func FormatCell(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case []byte:
		return string(x)
	case bool:
		return strconv.FormatBool(x)
	case int:
		return strconv.Itoa(x)
	case int8:
		return strconv.FormatInt(int64(x), 10)
	case int16:
		return strconv.FormatInt(int64(x), 10)
	case int32:
		return strconv.FormatInt(int64(x), 10)
	case int64:
		return strconv.FormatInt(x, 10)
	case uint8:
		return strconv.FormatUint(uint64(x), 10)
	case uint16:
		return strconv.FormatUint(uint64(x), 10)
	case uint32:
		return strconv.FormatUint(uint64(x), 10)
	case uint64:
		return strconv.FormatUint(x, 10)
	case float32:
		return domain.FormatFloat(float64(x))
	case float64:
		return domain.FormatFloat(x)
	case time.Time:
		return x.Format(domain.TimestampLayout)
	case driver.Valuer:
		dv, err := x.Value()
		if err != nil {
			return fmt.Sprint(v)
		}
		return FormatCell(dv)
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(v)
	}
}
