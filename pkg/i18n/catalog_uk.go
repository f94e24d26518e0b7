package i18n

var ukrainian = map[string]string{
	"Unknown command: %s":                       "Невідома команда: %s",
	"You don't have access to this command.":    "У вас немає доступу до цієї команди.",
	"Invalid task ID.":                          "Невірний ID задачі.",
	"Task not found: %s":                        "Задачу не знайдено: %s",
	"User not found: %s":                        "Користувача не знайдено: %s",
	"No tasks found.":                           "Задач не знайдено.",
	"Task [%s]: %s":                             "Задача [%s]: %s",
	"Task paused.":                              "Задачу призупинено.",
	"Task resumed.":                             "Задачу відновлено.",
	"Task cancelled.":                           "Задачу скасовано.",
	"Task sent back to PM for review.":          "Задачу повернуто PM на перевірку.",
	"Task approved by PM.":                      "Задачу затверджено PM.",
	"Task marked as completed.":                 "Задачу позначено як завершену.",
	"Task [%s] marked as done.":                 "Задачу [%s] позначено як виконану.",
	"Task reassigned to %s.":                    "Задачу перепризначено на %s.",
	"Task [%s] reassigned to %s.":               "Задачу [%s] перепризначено на %s.",
	"Comment added to Task [%s].":               "Коментар додано до задачі [%s].",
	"*Available AI Commands*:":                  "*Доступні AI-команди*:",
	"Open Wizard":                               "Відкрити майстер",
	"Create Task Wizard":                        "Майстер створення задачі",
	"Edit Task %s via wizard":                   "Редагувати задачу %s у майстрі",
	"Click here to edit Task %s via wizard":     "Натисніть, щоб редагувати задачу %s у майстрі",
	"Too many commands, try again in a minute.": "Забагато команд, спробуйте за хвилину.",
	"Command failed, please try again later.":   "Команда не виконалась, спробуйте пізніше.",
	"Deadline reminder: due %s.":                "Нагадування: термін %s.",
}
