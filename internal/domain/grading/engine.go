package grading

import "math"

// ══════════════════════════════════════════════════════════════════════════════
// GPA ENGINE
// Чистая функция: список курсов -> средний балл. Никогда не падает и не
// возвращает NaN - некорректный вход деградирует до безопасных нулей.
// ══════════════════════════════════════════════════════════════════════════════

// CourseInput - минимальный срез курса, который нужен движку.
// Транскрипт и планировщик передают сюда копии своих курсов.
type CourseInput struct {
	// Credits - кредиты курса. Отрицательные и NaN значения считаются нулём.
	Credits float64

	// Grade - символ оценки. Неизвестный символ исключается из расчёта.
	Grade Symbol
}

// CalculateGPA вычисляет средний балл по списку курсов.
//
// Правила включения:
//   - кредиты <= 0 или tag excluded - курс не участвует вовсе;
//   - tag failed - 0 баллов в числитель, кредиты полностью в знаменатель;
//   - tag graded - кредиты и кредиты×балл.
//
// Пустой или вырожденный вход даёт 0.
func (s *Scale) CalculateGPA(courses []CourseInput) float64 {
	var numerator, denominator float64

	for _, c := range courses {
		credits := sanitizeCredits(c.Credits)
		if credits == 0 {
			continue
		}
		if s.TagOf(c.Grade) == TagExcluded {
			continue
		}

		denominator += credits
		numerator += credits * s.PointsOf(c.Grade)
	}

	if denominator == 0 {
		return 0
	}

	return roundWithTolerance(numerator / denominator)
}

// sanitizeCredits нормализует значение кредитов: NaN, бесконечности и
// отрицательные значения трактуются как 0.
func sanitizeCredits(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}

// roundWithTolerance применяет правило округления регистратуры:
// значение считается до трёх знаков, затем сравниваются округление и
// усечение до двух знаков. Если они расходятся не более чем на 0.03,
// предпочитается усечённое значение, иначе округлённое.
func roundWithTolerance(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}

	// Работаем в целых тысячных: v3*100 для значения вроде 8.43 даёт
	// 842.999..., и прямое усечение теряло бы верный знак.
	m3 := math.Round(v * 1000)
	rounded := math.Round(m3/10) / 100
	truncated := math.Trunc(m3/10) / 100

	if math.Abs(rounded-truncated) <= 0.03 {
		return truncated
	}
	return rounded
}
