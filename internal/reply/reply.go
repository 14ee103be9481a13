// Package reply — детерминированный rule-based резолвер ответов бота.
//
// Резолвер — чистая функция «текст -> ответ» без разделяемого состояния:
//  1. нормализация (TrimSpace + ToLower);
//  2. упорядоченная таблица keyword-правил, побеждает ПЕРВОЕ правило,
//     любое ключевое слово которого входит в нормализованный текст
//     (порядок правил — часть контракта);
//  3. intent-правила с фиксированными подсказками (регистрация, логин,
//     сброс пароля);
//  4. команда "calculate ..." — арифметика через настоящий парсер выражений
//     (никакого исполнения пользовательского текста как кода);
//  5. fallback — эхо исходного текста с подсказкой.
package reply

import (
	"fmt"
	"strings"
	"time"
)

// rule — одно keyword-правило: набор подстрок и ответчик.
// respond вычисляется в момент совпадения (например, текущее время).
type rule struct {
	keywords []string
	respond  func(now time.Time) string
}

// static оборачивает фиксированный текст в ответчик.
func static(text string) func(time.Time) string {
	return func(time.Time) string { return text }
}

// Engine — неизменяемая таблица правил. Безопасен для конкурентного
// использования: после конструирования ничего не мутируется.
type Engine struct {
	rules []rule
	now   func() time.Time
}

// Option настраивает Engine при создании.
type Option func(*Engine)

// WithClock подменяет источник времени (для правила "time" в тестах).
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// New собирает Engine со стандартной таблицей правил.
func New(opts ...Option) *Engine {
	e := &Engine{
		now: time.Now,
		rules: []rule{
			{
				keywords: []string{"hello", "hi", "hey"},
				respond:  static("Hello! 👋 How can I help you today?"),
			},
			{
				keywords: []string{"how are you", "how r you", "how are u"},
				respond:  static("I'm a bot — always ready to help! How can I assist you?"),
			},
			{
				keywords: []string{"help", "support"},
				respond: static("I can answer simple questions, save chat history, and echo your messages. " +
					"Try typing 'faq' or ask for 'time'."),
			},
			{
				keywords: []string{"time", "what time", "current time"},
				respond: func(now time.Time) string {
					return "Current server time is: " + now.Format("1/2/2006, 3:04:05 PM")
				},
			},
			{
				keywords: []string{"bye", "goodbye", "see you"},
				respond:  static("Goodbye! If you need me again, just start a new chat. 👋"),
			},
			{
				keywords: []string{"faq", "questions"},
				respond: static("You can ask about registration, login, or chat features. " +
					"Example: 'How do I reset my password?'"),
			},
		},
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Фиксированные intent-ответы.
const (
	registerReply = "To register, use the Register button and provide your name, email and password. " +
		"If you'd like, I can create a demo request for you."
	loginReply = "To log in, use your registered email and password at the login page. " +
		"If you forgot your password, ask for 'reset password'."
	resetReply = "Password reset is not implemented in this demo. " +
		"In production you'd receive a reset link by email."
)

// calcPrefix — командный префикс калькулятора.
const calcPrefix = "calculate "

// Resolve возвращает ответ бота на текст пользователя.
// Никогда не возвращает ошибку и не паникует: любой сбой калькулятора
// превращается в фиксированную подсказку.
func (e *Engine) Resolve(text string) string {
	norm := strings.ToLower(strings.TrimSpace(text))

	// 1) Keyword-правила: первое совпавшее побеждает.
	for _, r := range e.rules {
		for _, kw := range r.keywords {
			if strings.Contains(norm, kw) {
				return r.respond(e.now())
			}
		}
	}

	// 2) Intent-правила в фиксированном порядке.
	if strings.Contains(norm, "register") || strings.Contains(norm, "signup") || strings.Contains(norm, "sign up") {
		return registerReply
	}

	if strings.Contains(norm, "login") || strings.Contains(norm, "log in") {
		return loginReply
	}

	if strings.Contains(norm, "reset") && strings.Contains(norm, "password") {
		return resetReply
	}

	// 3) Калькулятор.
	if strings.HasPrefix(norm, calcPrefix) {
		// Выражение режем из исходного текста, чтобы не терять регистр —
		// на допустимые символы он всё равно не влияет.
		expr := strings.TrimSpace(text)[len(calcPrefix):]
		if result, ok := evaluate(expr); ok {
			return "Result: " + result
		}

		return "I couldn't calculate that. Please send a valid arithmetic expression, e.g. `calculate 2+2*3`."
	}

	// 4) Fallback: эхо исходного (нефильтрованного) текста + подсказка.
	return fmt.Sprintf("You said: %q. I don't fully understand that yet — try asking something simpler (e.g., 'help', 'time', 'faq').", text)
}
