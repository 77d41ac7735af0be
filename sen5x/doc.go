// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package sen5x provides a driver for the Sensirion SEN5x environmental sensor
// node (SEN50, SEN54, SEN55). The module measures particulate matter at four
// size cuts, relative humidity, temperature, and, depending on the variant, a
// VOC index and a NOx index.
//
// The sensor is driven over I²C. After Start() the sensor needs SettlingTime
// before the first Poll() returns meaningful data. Every 16-bit value in a
// response carries its own CRC-8, and a bad CRC only invalidates that value:
// Poll() returns a Reading in which the affected slot is absent while the
// other slots keep their values.
//
// # Temperature
//
// The temperature slot is the raw count divided by 200 with no offset term.
// Any offset needed to compensate for self heating in a particular enclosure
// is configured on the device with SetTemperatureCompensation, not applied
// here.
//
// # Datasheet
//
// https://sensirion.com/media/documents/6791EFA0/62A1F68F/Sensirion_Datasheet_Environmental_Node_SEN5x.pdf
package sen5x
