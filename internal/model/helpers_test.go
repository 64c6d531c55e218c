package model

var testCodec = Codec{ThreadCount: 32, MaxMessageData: 1024, MaxKeyLength: 255}

// testMessage builds an executable message with the given emission, fee and gas.
func testMessage(period uint64, thread uint8, index uint64, fee Amount, gas uint64) AsyncMessage {
	return NewMessage(MessageParams{
		EmissionSlot:  NewSlot(period, thread),
		EmissionIndex: index,
		Sender:        UserAddress([]byte("sender")),
		Destination:   SCAddress([]byte("destination")),
		Function:      "receive",
		MaxGas:        gas,
		Fee:           fee,
		Coins:         5 * amountScale,
		ValidityStart: NewSlot(period, thread),
		ValidityEnd:   NewSlot(period+10, thread),
		Params:        []byte{1, 2, 3},
	})
}
