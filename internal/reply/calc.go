package reply

import (
	"math"
	"strconv"
	"strings"

	"github.com/Knetic/govaluate"
)

// evaluate вычисляет арифметическое выражение калькулятора.
//
// Перед разбором выражение фильтруется по allow-list символов: цифры,
// + - * / ( ) . и пробельные. Всё прочее молча отбрасывается — как и
// любые идентификаторы, до парсера они просто не доходят. Разбор и
// вычисление выполняет govaluate; исполнение пользовательского текста
// как кода исключено по построению.
//
// Возвращает (результат, true) либо ("", false), если фильтрация дала
// пустую строку, выражение не разобралось или результат не число.
func evaluate(raw string) (string, bool) {
	filtered := filterExpr(raw)
	if filtered == "" {
		return "", false
	}

	eval, err := govaluate.NewEvaluableExpression(filtered)
	if err != nil {
		return "", false
	}

	value, err := eval.Evaluate(nil)
	if err != nil {
		return "", false
	}

	f, ok := value.(float64)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return "", false
	}

	return strconv.FormatFloat(f, 'f', -1, 64), true
}

// filterExpr оставляет только символы арифметической грамматики.
func filterExpr(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case strings.ContainsRune("+-*/(). \t", r):
			b.WriteRune(r)
		}
	}

	return strings.TrimSpace(b.String())
}
