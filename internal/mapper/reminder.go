package mapper

import (
	"strings"

	"github.com/getpulpo/fleet-importer/internal/model"
	"github.com/getpulpo/fleet-importer/internal/normalize"
)

// ReminderColumns is the required header set of the reminder sheets.
var ReminderColumns = []string{
	"Nombre de la Tarea*",
	"Fecha Vto Tarea*",
	"Opciones",
}

// Reminder maps a task row. The "Opciones" column names the entity the
// task is bound to; "Entidad" optionally selects drivers or vehicles
// (drivers by default). The responsible defaults to the bound entity when
// it is a driver.
func (m *Mapper) Reminder(row model.RawRow) (model.Reminder, error) {
	name, err := normalize.RequiredString(row, "Nombre de la Tarea*")
	if err != nil {
		return model.Reminder{}, err
	}
	description, _ := normalize.String(row.Cells["Descripción"])

	limitDate, err := m.dates.RequiredDate(row, "Fecha Vto Tarea*", "Hora*")
	if err != nil {
		return model.Reminder{}, err
	}

	priorityLabel, _ := normalize.String(row.Cells["Prioridad*"])
	priority := m.tables.Priority(priorityLabel)

	entityName, err := normalize.RequiredString(row, "Opciones")
	if err != nil {
		return model.Reminder{}, err
	}
	entityLabel, _ := normalize.String(row.Cells["Entidad"])
	entityType := m.tables.EntityType(entityLabel)

	var entityID int64
	if entityType == "vehicles" {
		vehicle, err := m.res.Vehicle("Opciones", entityName)
		if err != nil {
			return model.Reminder{}, err
		}
		entityID = vehicle.ID
	} else {
		driver, err := m.res.Driver("Opciones", entityName)
		if err != nil {
			return model.Reminder{}, err
		}
		entityID = driver.ID
	}

	responsibleName, ok := normalize.String(row.Cells["Responsable de la Tarea"])
	if !ok {
		responsibleName = entityName
	}
	responsible, err := m.res.Driver("Responsable de la Tarea", responsibleName)
	if err != nil {
		return model.Reminder{}, err
	}

	return model.Reminder{
		Name:          name,
		Description:   description,
		LimitDate:     limitDate,
		PriorityID:    priority,
		Notifications: m.notifications(row),
		UserIDs:       []int64{responsible.ID},
		EntityType:    entityType,
		EntityID:      entityID,
		ResponsibleID: responsible.ID,
	}, nil
}

// notifications builds the notification list from the "Recordatorio"
// channel column. The channel cell may request email, push, or both.
func (m *Mapper) notifications(row model.RawRow) []model.Notification {
	channels, ok := normalize.String(row.Cells["Recordatorio"])
	if !ok {
		return []model.Notification{}
	}

	amount := int(normalize.NumberOr(row.Cells["valor*"], 1))
	unitLabel, _ := normalize.String(row.Cells["Unidad de tiempo de notificación"])
	unit := m.tables.TimeUnit(unitLabel)

	lower := strings.ToLower(channels)
	var notifications []model.Notification
	if strings.Contains(lower, "email") {
		notifications = append(notifications, model.Notification{TypeID: "email", Amount: amount, Unit: unit})
	}
	if strings.Contains(lower, "notificación") || strings.Contains(lower, "notificacion") || strings.Contains(lower, "push") {
		notifications = append(notifications, model.Notification{TypeID: "push", Amount: amount, Unit: unit})
	}
	if notifications == nil {
		return []model.Notification{}
	}
	return notifications
}
